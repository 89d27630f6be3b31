package interfaces

import (
	"context"
	"time"

	"vxness/internal/models"
	"vxness/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TransactionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, txn *models.Transaction) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	// MarkProcessed settles a pending transaction. The pending-status filter
	// makes the Pending→{Approved,Rejected} transition one-way even under
	// concurrent approvals: the loser fails with a StateConflict.
	MarkProcessed(ctx context.Context, id primitive.ObjectID, status models.TransactionStatus, actorID primitive.ObjectID, reason string, processedAt time.Time) error

	// Listing
	GetByUserID(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error)
	GetByStatus(ctx context.Context, status models.TransactionStatus, params *utils.PaginationParams) ([]*models.Transaction, int64, error)

	// First-deposit detection for bonus eligibility
	CountApprovedDeposits(ctx context.Context, userID primitive.ObjectID) (int64, error)
}
