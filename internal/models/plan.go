package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommissionType string

const (
	CommissionTypePerLot     CommissionType = "per_lot"
	CommissionTypePercentage CommissionType = "percentage"
)

// MaxPlanLevels bounds both the per-level rate table and the upline walk.
const MaxPlanLevels = 5

// CommissionPlan defines how commission is computed for each upline level.
// Rates is keyed by level ("1".."5"): a fixed amount per lot for per-lot plans,
// a percentage for percentage plans.
type CommissionPlan struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name" validate:"required"`
	CommissionType CommissionType     `json:"commission_type" bson:"commission_type" validate:"required"`
	MaxLevels      int                `json:"max_levels" bson:"max_levels" default:"1"`
	Rates          map[string]float64 `json:"rates" bson:"rates"`

	// Source toggles for percentage plans.
	FromSpread     bool `json:"from_spread" bson:"from_spread" default:"true"`
	FromCommission bool `json:"from_commission" bson:"from_commission" default:"false"`
	FromSwap       bool `json:"from_swap" bson:"from_swap" default:"false"`

	MinWithdrawal float64 `json:"min_withdrawal" bson:"min_withdrawal" default:"0"`
	IsDefault     bool    `json:"is_default" bson:"is_default" default:"false"`
	IsActive      bool    `json:"is_active" bson:"is_active" default:"true"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// RateForLevel returns the configured rate for a 1-based level, or 0 when the
// level is out of range or not configured.
func (p *CommissionPlan) RateForLevel(level int) float64 {
	if level < 1 || level > MaxPlanLevels {
		return 0
	}
	return p.Rates[PlanLevelKey(level)]
}

func PlanLevelKey(level int) string {
	switch level {
	case 1:
		return "1"
	case 2:
		return "2"
	case 3:
		return "3"
	case 4:
		return "4"
	case 5:
		return "5"
	default:
		return ""
	}
}
