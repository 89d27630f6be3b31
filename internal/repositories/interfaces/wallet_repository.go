package interfaces

import (
	"context"

	"vxness/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WalletRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, wallet *models.Wallet) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Wallet, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Balance-bucket mutations, applied as single $inc writes
	ApplyDelta(ctx context.Context, id primitive.ObjectID, balance, pendingDeposits, pendingWithdrawals float64) error
}
