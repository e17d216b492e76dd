package repositories

import (
	"context"
	"time"

	"fulfillment/internal/models"
)

// PaymentRepository defines data access for payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	// MarkPaid settles a PENDING payment as PAID. It reports false when the
	// payment was no longer PENDING.
	MarkPaid(ctx context.Context, id, externalPaymentID string, paidAt time.Time) (bool, error)
	// MarkFailed settles a PENDING payment as FAILED. It reports false when
	// the payment was no longer PENDING.
	MarkFailed(ctx context.Context, id string) (bool, error)
}
