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

type bonusRepository struct {
	collection     *mongo.Collection
	userCollection *mongo.Collection
}

func NewBonusRepository(db *mongo.Database) interfaces.BonusRepository {
	return &bonusRepository{
		collection:     db.Collection("bonuses"),
		userCollection: db.Collection("user_bonuses"),
	}
}

func (r *bonusRepository) Create(ctx context.Context, bonus *models.Bonus) error {
	bonus.ID = primitive.NewObjectID()
	bonus.CreatedAt = time.Now()
	bonus.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, bonus)
	if err != nil {
		return fmt.Errorf("failed to create bonus: %w", err)
	}

	return nil
}

func (r *bonusRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Bonus, error) {
	var bonus models.Bonus
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&bonus)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("bonus", id.Hex())
		}
		return nil, fmt.Errorf("failed to get bonus: %w", err)
	}

	return &bonus, nil
}

// ListActive returns active bonuses ordered by created_at ascending. Bonus
// selection ties are broken by this ordering, which keeps the policy
// deterministic.
func (r *bonusRepository) ListActive(ctx context.Context) ([]*models.Bonus, error) {
	filter := bson.M{"is_active": true}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find active bonuses: %w", err)
	}
	defer cursor.Close(ctx)

	var bonuses []*models.Bonus
	for cursor.Next(ctx) {
		var bonus models.Bonus
		if err := cursor.Decode(&bonus); err != nil {
			return nil, fmt.Errorf("failed to decode bonus: %w", err)
		}
		bonuses = append(bonuses, &bonus)
	}

	return bonuses, nil
}

func (r *bonusRepository) IncrementUsage(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$inc": bson.M{"used_count": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to increment bonus usage: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.NewNotFoundError("bonus", id.Hex())
	}

	return nil
}

func (r *bonusRepository) CreateUserBonus(ctx context.Context, userBonus *models.UserBonus) error {
	userBonus.ID = primitive.NewObjectID()
	userBonus.CreatedAt = time.Now()
	userBonus.UpdatedAt = time.Now()

	_, err := r.userCollection.InsertOne(ctx, userBonus)
	if err != nil {
		return fmt.Errorf("failed to create user bonus: %w", err)
	}

	return nil
}

func (r *bonusRepository) GetUserBonusByID(ctx context.Context, id primitive.ObjectID) (*models.UserBonus, error) {
	var userBonus models.UserBonus
	err := r.userCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&userBonus)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("user bonus", id.Hex())
		}
		return nil, fmt.Errorf("failed to get user bonus: %w", err)
	}

	return &userBonus, nil
}

func (r *bonusRepository) GetActiveUserBonuses(ctx context.Context, userID primitive.ObjectID) ([]*models.UserBonus, error) {
	filter := bson.M{
		"user_id": userID,
		"status":  models.UserBonusStatusActive,
	}

	cursor, err := r.userCollection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "activated_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find active user bonuses: %w", err)
	}
	defer cursor.Close(ctx)

	var userBonuses []*models.UserBonus
	for cursor.Next(ctx) {
		var userBonus models.UserBonus
		if err := cursor.Decode(&userBonus); err != nil {
			return nil, fmt.Errorf("failed to decode user bonus: %w", err)
		}
		userBonuses = append(userBonuses, &userBonus)
	}

	return userBonuses, nil
}

func (r *bonusRepository) UpdateUserBonus(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.userCollection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update user bonus: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.NewNotFoundError("user bonus", id.Hex())
	}

	return nil
}

func (r *bonusRepository) GetExpiredActive(ctx context.Context, now time.Time) ([]*models.UserBonus, error) {
	filter := bson.M{
		"status":     models.UserBonusStatusActive,
		"expires_at": bson.M{"$lt": now},
	}

	cursor, err := r.userCollection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired user bonuses: %w", err)
	}
	defer cursor.Close(ctx)

	var userBonuses []*models.UserBonus
	for cursor.Next(ctx) {
		var userBonus models.UserBonus
		if err := cursor.Decode(&userBonus); err != nil {
			return nil, fmt.Errorf("failed to decode user bonus: %w", err)
		}
		userBonuses = append(userBonuses, &userBonus)
	}

	return userBonuses, nil
}
