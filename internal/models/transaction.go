package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TransactionType string
type TransactionStatus string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeAdjustment TransactionType = "adjustment"

	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusApproved  TransactionStatus = "approved"
	TransactionStatusRejected  TransactionStatus = "rejected"
	TransactionStatusCompleted TransactionStatus = "completed"
)

// Transaction is one deposit or withdrawal against a wallet. Status only moves
// pending -> approved or pending -> rejected and is terminal after that.
type Transaction struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID      primitive.ObjectID  `json:"user_id" bson:"user_id" validate:"required"`
	WalletID    primitive.ObjectID  `json:"wallet_id" bson:"wallet_id" validate:"required"`
	Type        TransactionType     `json:"type" bson:"type" validate:"required"`
	Status      TransactionStatus   `json:"status" bson:"status" default:"pending"`
	Amount      float64             `json:"amount" bson:"amount" validate:"required"`
	BonusAmount float64             `json:"bonus_amount" bson:"bonus_amount" default:"0"`
	TotalAmount float64             `json:"total_amount" bson:"total_amount"`
	BonusID     *primitive.ObjectID `json:"bonus_id" bson:"bonus_id"`
	Currency    string              `json:"currency" bson:"currency" default:"USD"`
	Reference   string              `json:"reference" bson:"reference"`
	Description string              `json:"description" bson:"description"`
	ActorID     *primitive.ObjectID `json:"actor_id" bson:"actor_id"`
	Reason      string              `json:"reason" bson:"reason"`
	ProcessedAt *time.Time          `json:"processed_at" bson:"processed_at"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" bson:"updated_at"`
}

// IsTerminal reports whether the transaction already left the pending state.
func (t *Transaction) IsTerminal() bool {
	return t.Status != TransactionStatusPending
}
