package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PartnerStatus string

const (
	PartnerStatusActive    PartnerStatus = "active"
	PartnerStatusSuspended PartnerStatus = "suspended"
	PartnerStatusClosed    PartnerStatus = "closed"
)

// PartnerAccount is an introducing broker: a user who refers traders and earns
// commission on their closed trades. WalletBalance and PendingWithdrawal are the
// commission wallet; they are only mutated under the partner's distributed lock.
type PartnerAccount struct {
	ID       primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID   primitive.ObjectID  `json:"user_id" bson:"user_id" validate:"required"`
	Status   PartnerStatus       `json:"status" bson:"status" default:"active"`
	ParentID *primitive.ObjectID `json:"parent_id" bson:"parent_id"`
	Level    int                 `json:"level" bson:"level" default:"1"`
	PlanID   *primitive.ObjectID `json:"plan_id" bson:"plan_id"`

	ReferralCode string `json:"referral_code" bson:"referral_code"`

	WalletBalance     float64 `json:"wallet_balance" bson:"wallet_balance" default:"0"`
	PendingWithdrawal float64 `json:"pending_withdrawal" bson:"pending_withdrawal" default:"0"`
	TotalEarned       float64 `json:"total_earned" bson:"total_earned" default:"0"`
	TotalWithdrawn    float64 `json:"total_withdrawn" bson:"total_withdrawn" default:"0"`
	TodayCommission   float64 `json:"today_commission" bson:"today_commission" default:"0"`

	// ReferralCounts is keyed by level ("1".."5").
	ReferralCounts map[string]int64 `json:"referral_counts" bson:"referral_counts"`
	TradedVolume   float64          `json:"traded_volume" bson:"traded_volume" default:"0"`
	TradedLots     float64          `json:"traded_lots" bson:"traded_lots" default:"0"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (p *PartnerAccount) IsActive() bool {
	return p.Status == PartnerStatusActive
}
