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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type referralRepository struct {
	collection *mongo.Collection
}

func NewReferralRepository(db *mongo.Database) interfaces.ReferralRepository {
	return &referralRepository{
		collection: db.Collection("referral_edges"),
	}
}

func (r *referralRepository) Create(ctx context.Context, edge *models.ReferralEdge) error {
	edge.ID = primitive.NewObjectID()
	edge.CreatedAt = time.Now()
	edge.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, edge)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.NewStateConflictError("user already has a referrer")
		}
		return fmt.Errorf("failed to create referral edge: %w", err)
	}

	return nil
}

func (r *referralRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.ReferralEdge, error) {
	var edge models.ReferralEdge
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&edge)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("referral edge", userID.Hex())
		}
		return nil, fmt.Errorf("failed to get referral edge: %w", err)
	}

	return &edge, nil
}

func (r *referralRepository) ExistsForUser(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return false, fmt.Errorf("failed to count referral edges: %w", err)
	}
	return count > 0, nil
}

func (r *referralRepository) GetByReferrer(ctx context.Context, partnerID primitive.ObjectID) ([]*models.ReferralEdge, error) {
	filter := bson.M{"referred_by": partnerID}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find referral edges: %w", err)
	}
	defer cursor.Close(ctx)

	var edges []*models.ReferralEdge
	for cursor.Next(ctx) {
		var edge models.ReferralEdge
		if err := cursor.Decode(&edge); err != nil {
			return nil, fmt.Errorf("failed to decode referral edge: %w", err)
		}
		edges = append(edges, &edge)
	}

	return edges, nil
}

// ApplyTradeStats folds one credited trade into the edge aggregates.
// first_trade_at is only set once via $min on the trade timestamp.
func (r *referralRepository) ApplyTradeStats(ctx context.Context, userID primitive.ObjectID, volume, commission float64, tradedAt time.Time) error {
	update := bson.M{
		"$inc": bson.M{
			"total_volume":     volume,
			"total_commission": commission,
		},
		"$set": bson.M{
			"last_trade_at": tradedAt,
			"updated_at":    time.Now(),
		},
		"$min": bson.M{
			"first_trade_at": tradedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"user_id": userID}, update)
	if err != nil {
		return fmt.Errorf("failed to update referral trade stats: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.NewNotFoundError("referral edge", userID.Hex())
	}

	return nil
}

func (r *referralRepository) AddCommission(ctx context.Context, userID primitive.ObjectID, commission float64) error {
	update := bson.M{
		"$inc": bson.M{"total_commission": commission},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"user_id": userID}, update)
	if err != nil {
		return fmt.Errorf("failed to add referral commission: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.NewNotFoundError("referral edge", userID.Hex())
	}

	return nil
}
