package interfaces

import (
	"context"
	"time"

	"vxness/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralRepository interface {
	// Edge lifecycle. Create relies on the unique user_id index: a second edge
	// for the same user fails.
	Create(ctx context.Context, edge *models.ReferralEdge) error
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.ReferralEdge, error)
	ExistsForUser(ctx context.Context, userID primitive.ObjectID) (bool, error)

	// Downline reads
	GetByReferrer(ctx context.Context, partnerID primitive.ObjectID) ([]*models.ReferralEdge, error)

	// Aggregate trade stats maintained by the commission engine
	ApplyTradeStats(ctx context.Context, userID primitive.ObjectID, volume, commission float64, tradedAt time.Time) error
	AddCommission(ctx context.Context, userID primitive.ObjectID, commission float64) error
}
