package mongodb

import (
	"context"
	"fmt"
	"time"

	"vxness/internal/models"
	"vxness/internal/repositories/interfaces"
	"vxness/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type commissionRepository struct {
	collection *mongo.Collection
}

func NewCommissionRepository(db *mongo.Database) interfaces.CommissionRepository {
	return &commissionRepository{
		collection: db.Collection("commission_entries"),
	}
}

func (r *commissionRepository) Create(ctx context.Context, entry *models.CommissionLedgerEntry) error {
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.NewStateConflictError(
				fmt.Sprintf("commission for trade %s level %d already credited", entry.TradeID, entry.Level))
		}
		return fmt.Errorf("failed to create commission entry: %w", err)
	}

	return nil
}

func (r *commissionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.CommissionLedgerEntry, error) {
	var entry models.CommissionLedgerEntry
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("commission entry", id.Hex())
		}
		return nil, fmt.Errorf("failed to get commission entry: %w", err)
	}

	return &entry, nil
}

// MarkReversed flips a credited entry to reversed. The status filter makes the
// transition one-way even under concurrent reversal attempts.
func (r *commissionRepository) MarkReversed(ctx context.Context, id primitive.ObjectID, actor primitive.ObjectID, reason string) error {
	now := time.Now()
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": models.CommissionEntryStatusCredited},
		bson.M{"$set": bson.M{
			"status":          models.CommissionEntryStatusReversed,
			"reversed_at":     now,
			"reversed_by":     actor,
			"reversal_reason": reason,
			"updated_at":      now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark commission entry reversed: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.NewStateConflictError("commission entry already reversed")
	}

	return nil
}

func (r *commissionRepository) GetByPartnerID(ctx context.Context, partnerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.CommissionLedgerEntry, int64, error) {
	filter := bson.M{"partner_id": partnerID}

	if params.Search != "" {
		searchFilter := params.GetSearchFilter([]string{"trade_id", "symbol"})
		if len(searchFilter) > 0 {
			filter = bson.M{"$and": []bson.M{filter, searchFilter}}
		}
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count commission entries: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find commission entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*models.CommissionLedgerEntry
	for cursor.Next(ctx) {
		var entry models.CommissionLedgerEntry
		if err := cursor.Decode(&entry); err != nil {
			return nil, 0, fmt.Errorf("failed to decode commission entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, total, nil
}

func (r *commissionRepository) SumCreditedByPartner(ctx context.Context, partnerID primitive.ObjectID) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"partner_id": partnerID,
			"status":     models.CommissionEntryStatusCredited,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$amount"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum credited commissions: %w", err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Total float64 `bson:"total"`
	}

	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, fmt.Errorf("failed to decode commission sum: %w", err)
		}
	}

	return result.Total, nil
}
