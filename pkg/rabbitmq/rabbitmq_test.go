package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"testing"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type ackRecorder struct {
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (a *ackRecorder) Ack(tag uint64, _ bool) error {
	a.acked = append(a.acked, tag)
	return nil
}

func (a *ackRecorder) Nack(tag uint64, _ bool, requeue bool) error {
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func TestDeliver(t *testing.T) {
	tests := []struct {
		name        string
		handlerErr  error
		wantAck     bool
		wantRequeue bool
	}{
		{name: "success acks", handlerErr: nil, wantAck: true},
		{name: "transient failure requeues", handlerErr: errors.New("smtp down"), wantRequeue: true},
		{name: "permanent failure drops", handlerErr: fmt.Errorf("%w: bad payload", ErrPermanent), wantRequeue: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &ackRecorder{}
			msg := amqp.Delivery{
				Acknowledger: rec,
				DeliveryTag:  7,
				Type:         "stock_alert.low_stock",
				Body:         []byte(`{}`),
			}

			var gotType string
			var gotBody []byte
			deliver(context.Background(), msg, func(_ context.Context, jobType string, body []byte) error {
				gotType, gotBody = jobType, body
				return tt.handlerErr
			}, zaptest.NewLogger(t))

			assert.Equal(t, "stock_alert.low_stock", gotType)
			assert.Equal(t, []byte(`{}`), gotBody)
			if tt.wantAck {
				assert.Equal(t, []uint64{7}, rec.acked)
				assert.Empty(t, rec.nacked)
				return
			}
			assert.Empty(t, rec.acked)
			assert.Equal(t, []uint64{7}, rec.nacked)
			assert.Equal(t, []bool{tt.wantRequeue}, rec.requeue)
		})
	}
}
