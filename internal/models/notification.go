package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type NotificationKind string

const (
	NotificationDepositApproved     NotificationKind = "deposit_approved"
	NotificationDepositRejected     NotificationKind = "deposit_rejected"
	NotificationWithdrawalRequested NotificationKind = "withdrawal_requested"
	NotificationWithdrawalApproved  NotificationKind = "withdrawal_approved"
	NotificationWithdrawalRejected  NotificationKind = "withdrawal_rejected"
	NotificationCommissionCredited  NotificationKind = "commission_credited"
	NotificationCommissionReversed  NotificationKind = "commission_reversed"
	NotificationBonusActivated      NotificationKind = "bonus_activated"
)

// Notification is the payload handed to the notify port. Delivery is
// best-effort; a failed notification never fails the financial operation that
// produced it.
type Notification struct {
	Kind      NotificationKind       `json:"kind"`
	Recipient primitive.ObjectID     `json:"recipient"`
	Vars      map[string]interface{} `json:"vars,omitempty"`
}
