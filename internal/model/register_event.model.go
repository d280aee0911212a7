package model

import (
	"strings"
	"time"
)

const (
	EventCashIntentCreated  = "cash_intent.created"
	EventCashIntentVerified = "cash_intent.verified"
	EventCashIntentExpired  = "cash_intent.expired"
	EventPurchaseRecorded   = "purchase.recorded"
)

// RegisterEvent is what the register feed carries to the cashier display.
// It never holds a cashier code.
type RegisterEvent struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	Mobile        string     `json:"mobile"`
	Name          string     `json:"name,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	VerifiedAt    *time.Time `json:"verifiedAt,omitempty"`
	PaymentMethod string     `json:"paymentMethod,omitempty"`
	Total         float64    `json:"total,omitempty"`
	OccurredAt    time.Time  `json:"occurredAt"`
}

// MaskMobile keeps the last four characters of a mobile number.
func MaskMobile(mobile string) string {
	const visible = 4
	if len(mobile) <= visible {
		return mobile
	}
	return strings.Repeat("*", len(mobile)-visible) + mobile[len(mobile)-visible:]
}
