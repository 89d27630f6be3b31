package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BonusCategory string
type BonusValueType string
type UserBonusStatus string

const (
	BonusCategoryFirstDeposit BonusCategory = "first_deposit"
	BonusCategoryDeposit      BonusCategory = "deposit"
	BonusCategoryReload       BonusCategory = "reload"
	BonusCategorySpecial      BonusCategory = "special"

	BonusValuePercentage BonusValueType = "percentage"
	BonusValueFixed      BonusValueType = "fixed"

	UserBonusStatusPending   UserBonusStatus = "pending"
	UserBonusStatusActive    UserBonusStatus = "active"
	UserBonusStatusCompleted UserBonusStatus = "completed"
	UserBonusStatusExpired   UserBonusStatus = "expired"
	UserBonusStatusCancelled UserBonusStatus = "cancelled"
)

// Bonus is a deposit bonus template. WagerRequirement is a multiplier; the
// absolute requirement is fixed at activation time on the UserBonus.
type Bonus struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name             string             `json:"name" bson:"name" validate:"required"`
	Category         BonusCategory      `json:"category" bson:"category" validate:"required"`
	ValueType        BonusValueType     `json:"value_type" bson:"value_type" validate:"required"`
	Value            float64            `json:"value" bson:"value" validate:"required"`
	MinDeposit       float64            `json:"min_deposit" bson:"min_deposit" default:"0"`
	MaxBonus         float64            `json:"max_bonus" bson:"max_bonus" default:"0"`
	WagerRequirement float64            `json:"wager_requirement" bson:"wager_requirement" default:"0"`
	DurationDays     int                `json:"duration_days" bson:"duration_days" default:"30"`
	UsageLimit       int64              `json:"usage_limit" bson:"usage_limit" default:"0"`
	UsedCount        int64              `json:"used_count" bson:"used_count" default:"0"`
	IsActive         bool               `json:"is_active" bson:"is_active" default:"true"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
}

// HasUsageLeft reports whether the bonus can still be granted. A zero usage
// limit means unlimited.
func (b *Bonus) HasUsageLeft() bool {
	return b.UsageLimit == 0 || b.UsedCount < b.UsageLimit
}

// ComputeAmount returns the bonus amount for a deposit: percentage bonuses are
// capped at MaxBonus (when set), fixed bonuses pay Value outright.
func (b *Bonus) ComputeAmount(depositAmount float64) float64 {
	switch b.ValueType {
	case BonusValuePercentage:
		amount := depositAmount * b.Value / 100
		if b.MaxBonus > 0 && amount > b.MaxBonus {
			amount = b.MaxBonus
		}
		return amount
	case BonusValueFixed:
		return b.Value
	default:
		return 0
	}
}

// UserBonus is an activated bonus instance tied to an approved deposit.
// RemainingWager is monotonically non-increasing; the bonus completes only when
// it reaches zero and expires when now passes ExpiresAt.
type UserBonus struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID           primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	BonusID          primitive.ObjectID `json:"bonus_id" bson:"bonus_id" validate:"required"`
	DepositID        primitive.ObjectID `json:"deposit_id" bson:"deposit_id" validate:"required"`
	BonusAmount      float64            `json:"bonus_amount" bson:"bonus_amount"`
	WagerRequirement float64            `json:"wager_requirement" bson:"wager_requirement"`
	RemainingWager   float64            `json:"remaining_wager" bson:"remaining_wager"`
	Status           UserBonusStatus    `json:"status" bson:"status" default:"pending"`
	MaxWithdrawal    float64            `json:"max_withdrawal" bson:"max_withdrawal" default:"0"`
	WithdrawnAmount  float64            `json:"withdrawn_amount" bson:"withdrawn_amount" default:"0"`
	ActivatedAt      *time.Time         `json:"activated_at" bson:"activated_at"`
	ExpiresAt        *time.Time         `json:"expires_at" bson:"expires_at"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
}

func (ub *UserBonus) IsExpired(now time.Time) bool {
	return ub.ExpiresAt != nil && now.After(*ub.ExpiresAt)
}
