package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TradeClosedEvent is emitted by the trade execution engine once per closed
// trade. The commission engine consumes it and must be invoked at most once
// per TradeID.
type TradeClosedEvent struct {
	TradeID    string             `json:"trade_id" binding:"required"`
	UserID     primitive.ObjectID `json:"user_id" binding:"required"`
	Symbol     string             `json:"symbol" binding:"required"`
	LotSize    float64            `json:"lot_size" binding:"required,gt=0"`
	OpenPrice  float64            `json:"open_price"`
	ClosePrice float64            `json:"close_price"`
	Spread     float64            `json:"spread"`
	Commission float64            `json:"commission"`
	Swap       float64            `json:"swap"`
}

// Per-symbol-class contract sizes, used to convert lot size into notional volume.
const (
	ContractSizeForex  = 100000.0
	ContractSizeGold   = 100.0
	ContractSizeSilver = 5000.0
	ContractSizeCrypto = 1.0
)

// ContractSize classifies a symbol into its contract-size multiplier. The table
// is fixed; unknown symbols fall back to the standard forex lot.
func ContractSize(symbol string) float64 {
	s := strings.ToUpper(symbol)
	switch {
	case strings.HasPrefix(s, "XAU"):
		return ContractSizeGold
	case strings.HasPrefix(s, "XAG"):
		return ContractSizeSilver
	case strings.HasPrefix(s, "BTC"), strings.HasPrefix(s, "ETH"),
		strings.HasPrefix(s, "LTC"), strings.HasPrefix(s, "XRP"):
		return ContractSizeCrypto
	default:
		return ContractSizeForex
	}
}

// NotionalVolume converts a lot size into notional volume for the given symbol.
func (t *TradeClosedEvent) NotionalVolume() float64 {
	return t.LotSize * ContractSize(t.Symbol)
}
