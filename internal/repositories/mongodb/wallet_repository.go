package mongodb

import (
	"context"
	"fmt"
	"time"

	"vxness/internal/models"
	"vxness/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type walletRepository struct {
	collection *mongo.Collection
}

func NewWalletRepository(db *mongo.Database) interfaces.WalletRepository {
	return &walletRepository{
		collection: db.Collection("wallets"),
	}
}

func (r *walletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	wallet.ID = primitive.NewObjectID()
	wallet.CreatedAt = time.Now()
	wallet.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, wallet)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.NewStateConflictError("wallet already exists for user")
		}
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	return nil
}

func (r *walletRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&wallet)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("wallet", id.Hex())
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return &wallet, nil
}

func (r *walletRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&wallet)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("wallet", userID.Hex())
		}
		return nil, fmt.Errorf("failed to get wallet by user: %w", err)
	}

	return &wallet, nil
}

func (r *walletRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.NewNotFoundError("wallet", id.Hex())
	}

	return nil
}

// ApplyDelta increments the three balance buckets in one write. Zero deltas
// are skipped so the update document stays minimal.
func (r *walletRepository) ApplyDelta(ctx context.Context, id primitive.ObjectID, balance, pendingDeposits, pendingWithdrawals float64) error {
	inc := bson.M{}
	if balance != 0 {
		inc["balance"] = balance
	}
	if pendingDeposits != 0 {
		inc["pending_deposits"] = pendingDeposits
	}
	if pendingWithdrawals != 0 {
		inc["pending_withdrawals"] = pendingWithdrawals
	}
	if len(inc) == 0 {
		return nil
	}

	update := bson.M{
		"$inc": inc,
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to apply wallet delta: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.NewNotFoundError("wallet", id.Hex())
	}

	return nil
}
