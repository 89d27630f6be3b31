package utils

import (
	"fmt"
	"math"
)

// RoundMoney rounds an amount to 2 decimal places. Every persisted monetary
// value goes through this before it is written.
func RoundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// PercentOf computes rate% of base, rounded to 2 decimal places.
func PercentOf(base, rate float64) float64 {
	return RoundMoney(base * rate / 100)
}

// FloorAtZero clamps a balance at zero after a debit.
func FloorAtZero(amount float64) float64 {
	if amount < 0 {
		return 0
	}
	return amount
}

func FormatMoney(amount float64, currencyCode string) string {
	symbol := "$"
	switch currencyCode {
	case "EUR":
		symbol = "€"
	case "GBP":
		symbol = "£"
	}
	return fmt.Sprintf("%s%.2f", symbol, RoundMoney(amount))
}
