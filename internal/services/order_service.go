package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/models"
	"fulfillment/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaxShippingAddressLength is the longest accepted shipping address, in characters.
const MaxShippingAddressLength = 100

// OrderService converts carts into orders and owns the administrative
// order status path.
type OrderService struct {
	store    repositories.Store
	prices   PriceSnapshot
	ledger   InventoryLedger
	validate *validator.Validate
	log      *zap.Logger
	now      func() time.Time
}

// NewOrderService creates a new OrderService.
func NewOrderService(store repositories.Store, log *zap.Logger) *OrderService {
	return &OrderService{
		store:    store,
		validate: validator.New(),
		log:      log,
		now:      time.Now,
	}
}

// CreateOrderFromCart turns the user's cart into a PENDING order. Stock
// validation, price snapshot, order and line inserts, stock decrement and
// cart clearing commit together or not at all.
func (s *OrderService) CreateOrderFromCart(ctx context.Context, userID, shippingAddress string) (*models.Order, error) {
	address := strings.TrimSpace(shippingAddress)
	if err := s.validate.Var(address, fmt.Sprintf("required,max=%d", MaxShippingAddressLength)); err != nil {
		return nil, fmt.Errorf("%w: shipping address must be between 1 and %d characters", ErrInvalidInput, MaxShippingAddressLength)
	}

	var order *models.Order
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		cart, err := tx.Carts().GetByUserID(ctx, userID)
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		requests := make([]StockRequest, 0, len(cart.Items))
		ids := make([]string, 0, len(cart.Items))
		for _, ci := range cart.Items {
			if ci.Quantity <= 0 {
				return fmt.Errorf("%w: cart item %s has quantity %d", ErrInvalidInput, ci.ProductItemID, ci.Quantity)
			}
			requests = append(requests, StockRequest{ProductItemID: ci.ProductItemID, Quantity: ci.Quantity})
			ids = append(ids, ci.ProductItemID)
		}

		items, err := s.prices.Snapshot(ctx, tx.Inventory(), ids)
		if err != nil {
			return err
		}
		if short := s.ledger.Shortfalls(requests, items); len(short) > 0 {
			return &InsufficientStockError{Lines: short}
		}

		now := s.now()
		order = &models.Order{
			ID:              uuid.New().String(),
			UserID:          userID,
			ShippingAddress: address,
			Status:          models.OrderStatusPending,
			OrderDate:       now,
			Total:           decimal.Zero,
		}
		for _, r := range requests {
			line := models.OrderLine{
				ProductItemID: r.ProductItemID,
				Quantity:      r.Quantity,
				UnitPrice:     items[r.ProductItemID].Price,
				CreatedAt:     now,
			}
			order.Lines = append(order.Lines, line)
			order.Total = order.Total.Add(line.Subtotal())
		}

		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		if err := s.ledger.Reserve(ctx, tx.Inventory(), requests); err != nil {
			return err
		}
		return tx.Carts().ClearItems(ctx, cart.ID)
	})
	if err != nil {
		s.log.Warn("Order creation failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.log.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Int("lines", len(order.Lines)),
		zap.String("total", order.Total.StringFixed(2)),
	)
	return order, nil
}

// GetOrder returns one of the user's orders.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	order, err := s.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: order %s belongs to another user", ErrForbidden, orderID)
	}
	return order, nil
}

// UpdateOrderStatus lets the owner of a PENDING order cancel or reject it,
// returning its units to stock. APPROVED is reserved for the payment flow.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, userID, orderID string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: invalid order status: %s", ErrInvalidInput, status)
	}
	if status != models.OrderStatusCancelled && status != models.OrderStatusRejected {
		return nil, fmt.Errorf("%w: orders cannot be moved to %s by hand", ErrInvalidInput, status)
	}

	var order *models.Order
	var openPayment *models.Payment
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		var err error
		order, err = tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return fmt.Errorf("%w: order %s belongs to another user", ErrForbidden, orderID)
		}
		ok, err := tx.Orders().TransitionStatus(ctx, orderID, models.OrderStatusPending, status)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: order %s is %s", ErrAlreadySettled, orderID, order.Status)
		}

		requests := make([]StockRequest, 0, len(order.Lines))
		for _, l := range order.Lines {
			requests = append(requests, StockRequest{ProductItemID: l.ProductItemID, Quantity: l.Quantity})
		}
		if err := s.ledger.Release(ctx, tx.Inventory(), requests); err != nil {
			return err
		}

		payment, err := tx.Payments().GetByOrderID(ctx, orderID)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil
		case err != nil:
			return err
		}
		if payment.Status == models.PaymentStatusPending {
			openPayment = payment
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update order status for order %s: %w", orderID, err)
	}

	order.Status = status
	s.log.Info("Order status updated", zap.String("order_id", orderID), zap.String("status", string(status)))
	if openPayment != nil {
		// TODO: cancel the gateway intent here once PaymentGateway exposes CancelIntent.
		s.log.Warn("Order closed with an open payment intent, a later capture needs manual refund",
			zap.String("order_id", orderID),
			zap.String("payment_id", openPayment.ID),
			zap.String("external_payment_id", openPayment.ExternalPaymentID),
		)
	}
	return order, nil
}
