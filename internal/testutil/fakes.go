package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"fulfillment/pkg/gateway"
)

// ValidSignature is the only signature FakeGateway accepts.
const ValidSignature = "sig-valid"

// FakeGateway is an in-memory payment gateway. Webhook payloads are the JSON
// encoding of WebhookEvent.
type FakeGateway struct {
	mu       sync.Mutex
	Requests []gateway.IntentRequest
	// IntentErr, when set, fails every CreateIntent call.
	IntentErr error
}

// WebhookEvent is the payload format understood by FakeGateway.
type WebhookEvent struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	ObjectID  string `json:"object_id"`
	PaymentID string `json:"payment_id"`
	Created   int64  `json:"created"`
}

// WebhookPayload encodes a webhook event for paymentID.
func WebhookPayload(eventType, paymentID string, created time.Time) []byte {
	b, _ := json.Marshal(WebhookEvent{
		ID:        "evt_" + paymentID,
		Type:      eventType,
		ObjectID:  "pi_" + paymentID,
		PaymentID: paymentID,
		Created:   created.Unix(),
	})
	return b
}

// CreateIntent implements services.PaymentGateway.
func (g *FakeGateway) CreateIntent(ctx context.Context, req gateway.IntentRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Requests = append(g.Requests, req)
	if g.IntentErr != nil {
		return "", g.IntentErr
	}
	return "pi_" + req.IdempotencyKey, nil
}

// IntentCalls returns how many intents were requested.
func (g *FakeGateway) IntentCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Requests)
}

// ParseWebhook implements services.PaymentGateway.
func (g *FakeGateway) ParseWebhook(payload []byte, signature string) (gateway.Event, error) {
	if signature != ValidSignature {
		return gateway.Event{}, errors.New("signature mismatch")
	}
	var ev WebhookEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return gateway.Event{}, fmt.Errorf("malformed payload: %w", err)
	}

	out := gateway.Event{
		ID:        ev.ID,
		Type:      ev.Type,
		ObjectID:  ev.ObjectID,
		PaymentID: ev.PaymentID,
	}
	if ev.Created > 0 {
		out.Timestamp = time.Unix(ev.Created, 0).UTC()
	}
	switch ev.Type {
	case "payment_intent.succeeded":
		out.Kind = gateway.EventPaymentSucceeded
	case "payment_intent.payment_failed":
		out.Kind = gateway.EventPaymentFailed
	default:
		out.Kind = gateway.EventUnhandled
	}
	return out, nil
}

// Job is one message put on a FakeQueue.
type Job struct {
	Type    string
	Payload []byte
}

// FakeQueue is an in-memory job queue safe for concurrent use.
type FakeQueue struct {
	mu   sync.Mutex
	jobs []Job
	// Err, when set, fails every Enqueue call.
	Err error
}

// Enqueue implements services.JobQueue.
func (q *FakeQueue) Enqueue(ctx context.Context, jobType string, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Err != nil {
		return q.Err
	}
	q.jobs = append(q.jobs, Job{Type: jobType, Payload: append([]byte(nil), payload...)})
	return nil
}

// Jobs returns a copy of the enqueued jobs.
func (q *FakeQueue) Jobs() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Job(nil), q.jobs...)
}
