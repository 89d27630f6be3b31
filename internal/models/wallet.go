package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Wallet is a trader's cash account. Balance only moves through the
// transaction state machine; PendingDeposits and PendingWithdrawals track funds
// reserved by transactions that have not reached a terminal state yet.
type Wallet struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID             primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	Balance            float64            `json:"balance" bson:"balance" default:"0"`
	PendingDeposits    float64            `json:"pending_deposits" bson:"pending_deposits" default:"0"`
	PendingWithdrawals float64            `json:"pending_withdrawals" bson:"pending_withdrawals" default:"0"`
	Currency           string             `json:"currency" bson:"currency" default:"USD"`
	IsActive           bool               `json:"is_active" bson:"is_active" default:"true"`
	CreatedAt          time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" bson:"updated_at"`
}
