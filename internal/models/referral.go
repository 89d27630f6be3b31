package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralEdgeStatus string

const (
	ReferralEdgeStatusActive   ReferralEdgeStatus = "active"
	ReferralEdgeStatusInactive ReferralEdgeStatus = "inactive"
)

// ReferralEdge links a trader to the partner who referred them. It is created
// once per user and never reassigned; the bounded upline walk relies on this
// single-assignment property instead of re-checking for cycles on every read.
type ReferralEdge struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID       primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	ReferredBy   primitive.ObjectID `json:"referred_by" bson:"referred_by" validate:"required"`
	ReferralCode string             `json:"referral_code" bson:"referral_code"`
	Level        int                `json:"level" bson:"level" default:"1"`
	Status       ReferralEdgeStatus `json:"status" bson:"status" default:"active"`

	// Aggregate trading stats, maintained as commissions are credited. The
	// trade timestamps are omitted until set: a persisted null would sort
	// below any date and win the $min that records first_trade_at.
	TotalVolume     float64    `json:"total_volume" bson:"total_volume"`
	TotalCommission float64    `json:"total_commission" bson:"total_commission"`
	FirstTradeAt    *time.Time `json:"first_trade_at" bson:"first_trade_at,omitempty"`
	LastTradeAt     *time.Time `json:"last_trade_at" bson:"last_trade_at,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// DownlineNode is one node of the depth-bounded downline tree read.
type DownlineNode struct {
	UserID       primitive.ObjectID `json:"user_id"`
	ReferralCode string             `json:"referral_code"`
	Level        int                `json:"level"`
	TotalVolume  float64            `json:"total_volume"`
	JoinedAt     time.Time          `json:"joined_at"`
	Children     []*DownlineNode    `json:"children,omitempty"`
}
