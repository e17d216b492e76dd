package services

import (
	"context"
	"encoding/json"
	"fmt"

	"fulfillment/pkg/rabbitmq"

	"go.uber.org/zap"
)

// Sender delivers a low-stock notification to a user.
type Sender interface {
	SendLowStock(ctx context.Context, job LowStockJob) error
}

// LogSender is a Sender that only writes the notification to the log.
type LogSender struct {
	log *zap.Logger
}

// NewLogSender creates a new LogSender.
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

// SendLowStock implements Sender.
func (s *LogSender) SendLowStock(_ context.Context, job LowStockJob) error {
	s.log.Info("Low stock notification",
		zap.String("user_id", job.UserID),
		zap.String("product_item_id", job.ProductItemID),
		zap.String("sku", job.SKU),
		zap.Int("stock", job.Stock),
		zap.Time("requested_at", job.RequestedAt),
	)
	return nil
}

// NotificationWorker consumes notification jobs from the queue.
type NotificationWorker struct {
	sender Sender
	log    *zap.Logger
}

// NewNotificationWorker creates a new NotificationWorker.
func NewNotificationWorker(sender Sender, log *zap.Logger) *NotificationWorker {
	return &NotificationWorker{sender: sender, log: log}
}

// Handle processes one job. Jobs that can never succeed are reported with
// rabbitmq.ErrPermanent so the queue drops them instead of redelivering.
func (w *NotificationWorker) Handle(ctx context.Context, jobType string, payload []byte) error {
	if jobType != JobLowStockAlert {
		return fmt.Errorf("%w: unknown job type %q", rabbitmq.ErrPermanent, jobType)
	}

	var job LowStockJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("%w: malformed low stock job: %v", rabbitmq.ErrPermanent, err)
	}
	if job.UserID == "" || job.ProductItemID == "" {
		return fmt.Errorf("%w: low stock job without user or item", rabbitmq.ErrPermanent)
	}

	if err := w.sender.SendLowStock(ctx, job); err != nil {
		w.log.Warn("Low stock notification not sent",
			zap.String("user_id", job.UserID),
			zap.String("product_item_id", job.ProductItemID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send low stock notification: %w", err)
	}
	return nil
}
