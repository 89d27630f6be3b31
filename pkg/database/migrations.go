package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migration struct {
	Version     int
	Description string
	Up          func(*mongo.Database) error
	Down        func(*mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
}

func NewMigrator(db *mongo.Database) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
	}
}

func (m *Migrator) Up() error {
	err := m.createMigrationsCollection()
	if err != nil {
		return err
	}

	currentVersion, err := m.getCurrentVersion()
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version > currentVersion {
			log.Printf("Running migration %d: %s", migration.Version, migration.Description)

			err := migration.Up(m.db)
			if err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}

			err = m.updateVersion(migration.Version)
			if err != nil {
				return fmt.Errorf("failed to update migration version: %w", err)
			}

			log.Printf("Migration %d completed successfully", migration.Version)
		}
	}

	return nil
}

func (m *Migrator) createMigrationsCollection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collections, err := m.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return err
	}

	for _, name := range collections {
		if name == "migrations" {
			return nil
		}
	}

	return m.db.CreateCollection(ctx, "migrations")
}

func (m *Migrator) getCurrentVersion() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var result struct {
		Version int `bson:"version"`
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})
	err := m.db.Collection("migrations").FindOne(ctx, bson.D{}, opts).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(version int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.db.Collection("migrations").InsertOne(ctx, bson.M{
		"version":    version,
		"applied_at": time.Now(),
	})
	return err
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create referral_edges collection with indexes",
			Up: func(db *mongo.Database) error {
				return createReferralEdgeIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("referral_edges").Drop(context.Background())
			},
		},
		{
			Version:     2,
			Description: "Create partner_accounts collection with indexes",
			Up: func(db *mongo.Database) error {
				return createPartnerIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("partner_accounts").Drop(context.Background())
			},
		},
		{
			Version:     3,
			Description: "Create commission_plans collection with indexes",
			Up: func(db *mongo.Database) error {
				return createPlanIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("commission_plans").Drop(context.Background())
			},
		},
		{
			Version:     4,
			Description: "Create commission_entries collection with indexes",
			Up: func(db *mongo.Database) error {
				return createCommissionEntryIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("commission_entries").Drop(context.Background())
			},
		},
		{
			Version:     5,
			Description: "Create wallets and transactions collections with indexes",
			Up: func(db *mongo.Database) error {
				return createWalletIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				if err := db.Collection("wallets").Drop(context.Background()); err != nil {
					return err
				}
				return db.Collection("transactions").Drop(context.Background())
			},
		},
		{
			Version:     6,
			Description: "Create bonuses and user_bonuses collections with indexes",
			Up: func(db *mongo.Database) error {
				return createBonusIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				if err := db.Collection("bonuses").Drop(context.Background()); err != nil {
					return err
				}
				return db.Collection("user_bonuses").Drop(context.Background())
			},
		},
	}
}

// One referral edge per user, ever. The unique index is what makes the edge
// single-assignment.
func createReferralEdgeIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("referral_edges")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "referred_by", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "referral_code", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createPartnerIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("partner_accounts")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "referral_code", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "parent_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createPlanIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("commission_plans")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "is_active", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "is_default", Value: 1}},
			Options: options.Index().SetPartialFilterExpression(
				bson.M{"is_default": true},
			),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// The (trade_id, level) unique index backs the engine's idempotency contract:
// a duplicate invocation for the same closed trade cannot double-credit.
func createCommissionEntryIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("commission_entries")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "trade_id", Value: 1},
				{Key: "level", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "partner_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "trading_day", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createWalletIndexes(db *mongo.Database) error {
	ctx := context.Background()

	walletIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := db.Collection("wallets").Indexes().CreateMany(ctx, walletIndexes); err != nil {
		return err
	}

	txnIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "reference", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}
	_, err := db.Collection("transactions").Indexes().CreateMany(ctx, txnIndexes)
	return err
}

func createBonusIndexes(db *mongo.Database) error {
	ctx := context.Background()

	bonusIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "created_at", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "category", Value: 1}},
		},
	}
	if _, err := db.Collection("bonuses").Indexes().CreateMany(ctx, bonusIndexes); err != nil {
		return err
	}

	userBonusIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
		},
	}
	_, err := db.Collection("user_bonuses").Indexes().CreateMany(ctx, userBonusIndexes)
	return err
}
