package utils

import "time"

// Application Constants
const (
	AppName    = "Vxness"
	AppVersion = "1.0.0"

	// Default values
	DefaultCurrency = "USD"
	DefaultTimeZone = "UTC"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Commission Constants
	MaxCommissionLevels = 5
	TradingDayFormat    = "2006-01-02"

	// Locking
	AccountLockTTL     = 10 * time.Second
	AccountLockRetries = 3
	AccountLockBackoff = 50 * time.Millisecond

	// Referral Constants
	ReferralCodeLength = 8

	// Notification
	NotificationTimeout = 30 * time.Second

	// Status values for API responses
	StatusSuccess = "success"
	StatusError   = "error"

	// Common error messages
	ErrValidationFailed = "Validation failed"
	ErrInternalServer   = "Internal server error"
)
