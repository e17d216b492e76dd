package repositories

import (
	"context"
	"fmt"
	"time"

	"fulfillment/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMPaymentRepository is a GORM implementation of PaymentRepository.
type GORMPaymentRepository struct {
	db *gorm.DB
}

// NewGORMPaymentRepository creates a new instance of GORMPaymentRepository.
func NewGORMPaymentRepository(db *gorm.DB) *GORMPaymentRepository {
	return &GORMPaymentRepository{
		db: db,
	}
}

// Create inserts a payment. The unique index on order_id rejects a second
// payment for the same order.
func (r *GORMPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment for order %s: %w", payment.OrderID, err)
	}
	return nil
}

// GetByID retrieves a payment by its ID.
func (r *GORMPaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "payment %s", id)
	}
	return &payment, nil
}

// GetByOrderID retrieves the payment settling an order.
func (r *GORMPaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "order_id = ?", orderID).Error; err != nil {
		return nil, notFoundOr(err, "payment of order %s", orderID)
	}
	return &payment, nil
}

// MarkPaid implements PaymentRepository.
func (r *GORMPaymentRepository) MarkPaid(ctx context.Context, id, externalPaymentID string, paidAt time.Time) (bool, error) {
	return r.settle(ctx, id, map[string]interface{}{
		"status":              models.PaymentStatusPaid,
		"payment_at":          paidAt,
		"external_payment_id": externalPaymentID,
	})
}

// MarkFailed implements PaymentRepository.
func (r *GORMPaymentRepository) MarkFailed(ctx context.Context, id string) (bool, error) {
	return r.settle(ctx, id, map[string]interface{}{
		"status": models.PaymentStatusFailed,
	})
}

func (r *GORMPaymentRepository) settle(ctx context.Context, id string, updates map[string]interface{}) (bool, error) {
	updates["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("failed to settle payment %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}
