package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"fulfillment/internal/services"
	"fulfillment/pkg/rabbitmq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockSender is a mock implementation of services.Sender.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendLowStock(ctx context.Context, job services.LowStockJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func TestNotificationWorker_Handle(t *testing.T) {
	job := services.LowStockJob{
		UserID:        "user-1",
		ProductItemID: "item-1",
		SKU:           "A",
		Stock:         2,
		RequestedAt:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(job)
	require.NoError(t, err)

	t.Run("delivers", func(t *testing.T) {
		sender := new(MockSender)
		sender.On("SendLowStock", mock.Anything, job).Return(nil).Once()
		worker := services.NewNotificationWorker(sender, zaptest.NewLogger(t))

		assert.NoError(t, worker.Handle(context.Background(), services.JobLowStockAlert, payload))
		sender.AssertExpectations(t)
	})

	t.Run("send failure is retryable", func(t *testing.T) {
		sender := new(MockSender)
		sender.On("SendLowStock", mock.Anything, job).Return(errors.New("smtp timeout")).Once()
		worker := services.NewNotificationWorker(sender, zaptest.NewLogger(t))

		err := worker.Handle(context.Background(), services.JobLowStockAlert, payload)
		require.Error(t, err)
		assert.NotErrorIs(t, err, rabbitmq.ErrPermanent)
	})

	t.Run("unprocessable jobs are permanent", func(t *testing.T) {
		sender := new(MockSender)
		worker := services.NewNotificationWorker(sender, zaptest.NewLogger(t))

		for _, tc := range []struct {
			jobType string
			payload []byte
		}{
			{"order.created", payload},
			{services.JobLowStockAlert, []byte("{not json")},
			{services.JobLowStockAlert, []byte(`{"sku":"A"}`)},
		} {
			err := worker.Handle(context.Background(), tc.jobType, tc.payload)
			assert.ErrorIs(t, err, rabbitmq.ErrPermanent)
		}
		sender.AssertNotCalled(t, "SendLowStock", mock.Anything, mock.Anything)
	})
}

func TestLogSender_SendLowStock(t *testing.T) {
	sender := services.NewLogSender(zaptest.NewLogger(t))
	assert.NoError(t, sender.SendLowStock(context.Background(), services.LowStockJob{UserID: "user-1"}))
}
