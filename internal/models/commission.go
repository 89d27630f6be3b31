package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommissionEntryStatus string

const (
	CommissionEntryStatusCredited CommissionEntryStatus = "credited"
	CommissionEntryStatusReversed CommissionEntryStatus = "reversed"
)

// SourceBreakdown records the independent per-source contributions of a
// percentage commission. Each contribution is rounded to 2 decimals and the
// entry amount is their sum, so the breakdown always reconciles with the total.
type SourceBreakdown struct {
	Spread     float64 `json:"spread" bson:"spread"`
	Commission float64 `json:"commission" bson:"commission"`
	Swap       float64 `json:"swap" bson:"swap"`
}

// CommissionLedgerEntry is the auditable record of one commission credit to one
// partner at one upline level. The (trade_id, level) pair is unique: a duplicate
// insert is rejected by the collection index, which makes trade processing safe
// against double invocation.
type CommissionLedgerEntry struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PartnerID primitive.ObjectID `json:"partner_id" bson:"partner_id" validate:"required"`
	TraderID  primitive.ObjectID `json:"trader_id" bson:"trader_id" validate:"required"`
	TradeID   string             `json:"trade_id" bson:"trade_id" validate:"required"`
	Level     int                `json:"level" bson:"level" validate:"required"`

	Symbol         string          `json:"symbol" bson:"symbol"`
	LotSize        float64         `json:"lot_size" bson:"lot_size"`
	Volume         float64         `json:"volume" bson:"volume"`
	CommissionType CommissionType  `json:"commission_type" bson:"commission_type"`
	Rate           float64         `json:"rate" bson:"rate"`
	Sources        SourceBreakdown `json:"sources" bson:"sources"`
	Amount         float64         `json:"amount" bson:"amount"`

	Status     CommissionEntryStatus `json:"status" bson:"status" default:"credited"`
	TradingDay string                `json:"trading_day" bson:"trading_day"`
	CreditedAt time.Time             `json:"credited_at" bson:"credited_at"`

	ReversedAt     *time.Time          `json:"reversed_at" bson:"reversed_at"`
	ReversedBy     *primitive.ObjectID `json:"reversed_by" bson:"reversed_by"`
	ReversalReason string              `json:"reversal_reason" bson:"reversal_reason"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type LevelResultStatus string

const (
	LevelResultCredited LevelResultStatus = "credited"
	LevelResultSkipped  LevelResultStatus = "skipped"
	LevelResultFailed   LevelResultStatus = "failed"
)

// LevelResult reports the outcome of one upline level during trade processing.
type LevelResult struct {
	PartnerID primitive.ObjectID `json:"partner_id"`
	Level     int                `json:"level"`
	Amount    float64            `json:"amount"`
	Status    LevelResultStatus  `json:"status"`
	Reason    string             `json:"reason,omitempty"`
}

// TradeCommissionResult is the per-trade summary returned by the engine.
type TradeCommissionResult struct {
	TradeID   string        `json:"trade_id"`
	Processed bool          `json:"processed"`
	Levels    []LevelResult `json:"levels,omitempty"`
}
