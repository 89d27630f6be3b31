package interfaces

import (
	"context"

	"vxness/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PartnerRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, partner *models.PartnerAccount) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.PartnerAccount, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.PartnerAccount, error)
	GetByReferralCode(ctx context.Context, code string) (*models.PartnerAccount, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Commission wallet mutations. ApplyCommissionCredit increments wallet
	// balance, total earned, today's commission and volume stats in one write.
	ApplyCommissionCredit(ctx context.Context, id primitive.ObjectID, amount, volume, lots float64) error
	ApplyCommissionReversal(ctx context.Context, id primitive.ObjectID, newBalance, newTotalEarned float64) error

	// Withdrawal workflow mutations
	ReserveWithdrawal(ctx context.Context, id primitive.ObjectID, amount float64) error
	SettleWithdrawal(ctx context.Context, id primitive.ObjectID, amount float64) error
	RefundWithdrawal(ctx context.Context, id primitive.ObjectID, amount float64) error
	FinalizeImmediateWithdrawal(ctx context.Context, id primitive.ObjectID, amount float64) error

	// Referral bookkeeping
	IncrementReferralCount(ctx context.Context, id primitive.ObjectID, level int) error

	// Daily counters, reset by an external scheduler
	ResetTodayCommission(ctx context.Context) (int64, error)
}
