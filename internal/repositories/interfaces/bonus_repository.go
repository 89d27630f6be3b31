package interfaces

import (
	"context"
	"time"

	"vxness/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BonusRepository interface {
	// Bonus templates
	Create(ctx context.Context, bonus *models.Bonus) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Bonus, error)
	// ListActive returns active bonuses ordered by created_at ascending; the
	// selection tie-break depends on this ordering.
	ListActive(ctx context.Context) ([]*models.Bonus, error)
	IncrementUsage(ctx context.Context, id primitive.ObjectID) error

	// User bonus instances
	CreateUserBonus(ctx context.Context, userBonus *models.UserBonus) error
	GetUserBonusByID(ctx context.Context, id primitive.ObjectID) (*models.UserBonus, error)
	GetActiveUserBonuses(ctx context.Context, userID primitive.ObjectID) ([]*models.UserBonus, error)
	UpdateUserBonus(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	GetExpiredActive(ctx context.Context, now time.Time) ([]*models.UserBonus, error)
}
