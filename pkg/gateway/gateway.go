// Package gateway defines the payment gateway events the fulfillment core
// reacts to and a Stripe-backed client producing them.
package gateway

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventKind is the closed set of webhook events the core distinguishes.
type EventKind int

const (
	// EventUnhandled is any gateway event the core has no handling for.
	EventUnhandled EventKind = iota
	EventPaymentSucceeded
	EventPaymentFailed
)

func (k EventKind) String() string {
	switch k {
	case EventPaymentSucceeded:
		return "payment_succeeded"
	case EventPaymentFailed:
		return "payment_failed"
	default:
		return "unhandled"
	}
}

// Event is a verified webhook event.
type Event struct {
	ID   string
	Kind EventKind
	// Type is the gateway's own event type name.
	Type string
	// ObjectID is the gateway's canonical id of the payment object.
	ObjectID string
	// PaymentID is the local payment id carried in the intent metadata, if any.
	PaymentID string
	Timestamp time.Time
}

// IntentRequest asks the gateway to start collecting a payment.
type IntentRequest struct {
	Amount   decimal.Decimal
	Currency string
	// IdempotencyKey makes retries of the same request return the same intent.
	IdempotencyKey string
	Metadata       map[string]string
}

// Metadata keys attached to every intent.
const (
	MetadataPaymentID         = "payment_id"
	MetadataOrderID           = "order_id"
	MetadataExternalPaymentID = "external_payment_id"
)
