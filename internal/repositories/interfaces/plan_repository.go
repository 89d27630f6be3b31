package interfaces

import (
	"context"

	"vxness/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PlanRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, plan *models.CommissionPlan) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.CommissionPlan, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	List(ctx context.Context) ([]*models.CommissionPlan, error)

	// Resolver fallbacks
	GetDefault(ctx context.Context) (*models.CommissionPlan, error)
	GetByName(ctx context.Context, name string) (*models.CommissionPlan, error)
	GetAnyActive(ctx context.Context) (*models.CommissionPlan, error)
}
