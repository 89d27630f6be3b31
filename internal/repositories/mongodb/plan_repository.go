package mongodb

import (
	"context"
	"fmt"
	"time"

	"vxness/internal/models"
	"vxness/internal/repositories/interfaces"
	"vxness/internal/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type planRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewPlanRepository(db *mongo.Database, cache services.CacheService) interfaces.PlanRepository {
	return &planRepository{
		collection: db.Collection("commission_plans"),
		cache:      cache,
	}
}

func (r *planRepository) Create(ctx context.Context, plan *models.CommissionPlan) error {
	plan.ID = primitive.NewObjectID()
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return fmt.Errorf("failed to create commission plan: %w", err)
	}

	r.invalidatePlanCaches(ctx)

	return nil
}

func (r *planRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.CommissionPlan, error) {
	cacheKey := fmt.Sprintf("plan:%s", id.Hex())
	if r.cache != nil {
		var plan models.CommissionPlan
		if err := r.cache.Get(ctx, cacheKey, &plan); err == nil {
			return &plan, nil
		}
	}

	var plan models.CommissionPlan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("commission plan", id.Hex())
		}
		return nil, fmt.Errorf("failed to get commission plan: %w", err)
	}

	if r.cache != nil {
		r.cache.Set(ctx, cacheKey, plan, 10*time.Minute)
	}

	return &plan, nil
}

func (r *planRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update commission plan: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.NewNotFoundError("commission plan", id.Hex())
	}

	r.invalidatePlanCaches(ctx)
	if r.cache != nil {
		r.cache.Delete(ctx, fmt.Sprintf("plan:%s", id.Hex()))
	}

	return nil
}

func (r *planRepository) List(ctx context.Context) ([]*models.CommissionPlan, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list commission plans: %w", err)
	}
	defer cursor.Close(ctx)

	var plans []*models.CommissionPlan
	for cursor.Next(ctx) {
		var plan models.CommissionPlan
		if err := cursor.Decode(&plan); err != nil {
			return nil, fmt.Errorf("failed to decode commission plan: %w", err)
		}
		plans = append(plans, &plan)
	}

	return plans, nil
}

func (r *planRepository) GetDefault(ctx context.Context) (*models.CommissionPlan, error) {
	cacheKey := "plan:default"
	if r.cache != nil {
		var plan models.CommissionPlan
		if err := r.cache.Get(ctx, cacheKey, &plan); err == nil {
			return &plan, nil
		}
	}

	var plan models.CommissionPlan
	err := r.collection.FindOne(ctx, bson.M{"is_default": true, "is_active": true}).Decode(&plan)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("default commission plan", "")
		}
		return nil, fmt.Errorf("failed to get default commission plan: %w", err)
	}

	if r.cache != nil {
		r.cache.Set(ctx, cacheKey, plan, 10*time.Minute)
	}

	return &plan, nil
}

func (r *planRepository) GetByName(ctx context.Context, name string) (*models.CommissionPlan, error) {
	var plan models.CommissionPlan
	err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&plan)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("commission plan", name)
		}
		return nil, fmt.Errorf("failed to get commission plan by name: %w", err)
	}

	return &plan, nil
}

func (r *planRepository) GetAnyActive(ctx context.Context) (*models.CommissionPlan, error) {
	var plan models.CommissionPlan
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	err := r.collection.FindOne(ctx, bson.M{"is_active": true}, opts).Decode(&plan)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("active commission plan", "")
		}
		return nil, fmt.Errorf("failed to get active commission plan: %w", err)
	}

	return &plan, nil
}

func (r *planRepository) invalidatePlanCaches(ctx context.Context) {
	if r.cache != nil {
		r.cache.Delete(ctx, "plan:default")
	}
}
