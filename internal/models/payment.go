package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the settlement state of a payment.
// PENDING moves once to PAID or FAILED and never leaves them.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Terminal reports whether no further transition is allowed.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed
}

// Payment settles exactly one order.
type Payment struct {
	ID                string          `json:"payment_id" gorm:"primaryKey;type:varchar(36)"`
	OrderID           string          `json:"order_id" gorm:"type:varchar(36);not null;uniqueIndex"`
	UserID            string          `json:"user_id" gorm:"type:varchar(36);not null;index"`
	ExternalPaymentID string          `json:"external_payment_id" gorm:"type:varchar(255);not null;index"`
	Amount            decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Currency          string          `json:"currency" gorm:"type:varchar(10);not null"`
	Status            PaymentStatus   `json:"status" gorm:"type:varchar(20);not null"`
	PaymentAt         *time.Time      `json:"payment_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	// IntentID is the gateway intent returned by the latest CreatePayment call.
	IntentID string `json:"intent_id,omitempty" gorm:"-"`
}
