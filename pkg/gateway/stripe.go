package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/webhook"
)

// Stripe event types mapped onto EventKind.
const (
	stripePaymentIntentSucceeded = "payment_intent.succeeded"
	stripePaymentIntentFailed    = "payment_intent.payment_failed"
)

// Stripe talks to the Stripe API. Webhook payloads are verified against the
// endpoint's signing secret.
type Stripe struct {
	intents    *paymentintent.Client
	webhookKey string
}

// NewStripe creates a Stripe client using secretKey for API calls and
// webhookKey for webhook signature verification.
func NewStripe(secretKey, webhookKey string) *Stripe {
	return &Stripe{
		intents:    &paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		webhookKey: webhookKey,
	}
}

// CreateIntent creates a PaymentIntent and returns its id.
func (s *Stripe) CreateIntent(ctx context.Context, req IntentRequest) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(MinorUnits(req.Amount)),
		Currency: stripe.String(req.Currency),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := s.intents.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create payment intent: %w", err)
	}
	return pi.ID, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookKey, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("failed to verify webhook: %w", err)
	}

	out := Event{
		ID:   ev.ID,
		Type: string(ev.Type),
	}
	if ev.Created > 0 {
		out.Timestamp = time.Unix(ev.Created, 0).UTC()
	}
	switch ev.Type {
	case stripePaymentIntentSucceeded:
		out.Kind = EventPaymentSucceeded
	case stripePaymentIntentFailed:
		out.Kind = EventPaymentFailed
	default:
		out.Kind = EventUnhandled
		return out, nil
	}

	if ev.Data == nil {
		return Event{}, fmt.Errorf("webhook event %s has no data", ev.ID)
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
		return Event{}, fmt.Errorf("failed to decode payment intent of event %s: %w", ev.ID, err)
	}
	out.ObjectID = pi.ID
	out.PaymentID = pi.Metadata[MetadataPaymentID]
	return out, nil
}

// MinorUnits converts an amount to the smallest currency unit, e.g. cents.
// Zero-decimal currencies are not supported.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
