package interfaces

import (
	"context"

	"vxness/internal/models"
	"vxness/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommissionRepository interface {
	// Create fails with a duplicate-key error when an entry for the same
	// (trade_id, level) already exists.
	Create(ctx context.Context, entry *models.CommissionLedgerEntry) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.CommissionLedgerEntry, error)

	// Reversal
	MarkReversed(ctx context.Context, id primitive.ObjectID, actor primitive.ObjectID, reason string) error

	// Partner ledger reads
	GetByPartnerID(ctx context.Context, partnerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.CommissionLedgerEntry, int64, error)
	SumCreditedByPartner(ctx context.Context, partnerID primitive.ObjectID) (float64, error)
}
