package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/models"
	"fulfillment/internal/repositories"
	"fulfillment/pkg/gateway"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentGateway is the external payment provider.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, req gateway.IntentRequest) (string, error)
	// ParseWebhook verifies the payload signature and decodes the event.
	ParseWebhook(payload []byte, signature string) (gateway.Event, error)
}

// StockAlertDispatcher receives the product items of a freshly paid order.
// Dispatch must not block on, or report, the outcome of the checks.
type StockAlertDispatcher interface {
	Dispatch(ctx context.Context, productItemIDs []string)
}

// PaymentConfig holds the payment settings taken from configuration.
type PaymentConfig struct {
	Currency       string
	GatewayTimeout time.Duration
}

// PaymentService creates payments and reconciles them with gateway webhooks.
type PaymentService struct {
	store   repositories.Store
	gateway PaymentGateway
	alerts  StockAlertDispatcher
	cfg     PaymentConfig
	log     *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(store repositories.Store, gw PaymentGateway, alerts StockAlertDispatcher, cfg PaymentConfig, log *zap.Logger) *PaymentService {
	return &PaymentService{
		store:   store,
		gateway: gw,
		alerts:  alerts,
		cfg:     cfg,
		log:     log,
	}
}

// CreatePayment persists a PENDING payment for the user's order and asks the
// gateway for an intent. If the gateway call fails the payment stays PENDING
// and a later call retries the intent for the same row.
func (s *PaymentService) CreatePayment(ctx context.Context, orderID, userID string) (*models.Payment, error) {
	order, err := s.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: order %s belongs to another user", ErrForbidden, orderID)
	}
	if order.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("%w: order %s is %s", ErrAlreadySettled, orderID, order.Status)
	}

	payment, err := s.store.Payments().GetByOrderID(ctx, orderID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		payment = &models.Payment{
			ID:                uuid.New().String(),
			OrderID:           order.ID,
			UserID:            userID,
			ExternalPaymentID: uuid.New().String(),
			Amount:            order.Total,
			Currency:          s.cfg.Currency,
			Status:            models.PaymentStatusPending,
		}
		if err := s.store.Payments().Create(ctx, payment); err != nil {
			// A concurrent request may have won the unique order_id index.
			existing, getErr := s.store.Payments().GetByOrderID(ctx, orderID)
			if getErr != nil {
				return nil, err
			}
			if existing.Status.Terminal() {
				return nil, fmt.Errorf("%w: payment %s is %s", ErrAlreadySettled, existing.ID, existing.Status)
			}
			payment = existing
		} else {
			s.log.Info("Payment created", zap.String("payment_id", payment.ID), zap.String("order_id", orderID))
		}
	case err != nil:
		return nil, err
	case payment.Status.Terminal():
		return nil, fmt.Errorf("%w: payment %s is %s", ErrAlreadySettled, payment.ID, payment.Status)
	default:
		s.log.Info("Retrying intent for pending payment", zap.String("payment_id", payment.ID), zap.String("order_id", orderID))
	}

	intentCtx := ctx
	if s.cfg.GatewayTimeout > 0 {
		var cancel context.CancelFunc
		intentCtx, cancel = context.WithTimeout(ctx, s.cfg.GatewayTimeout)
		defer cancel()
	}
	intentID, err := s.gateway.CreateIntent(intentCtx, gateway.IntentRequest{
		Amount:         payment.Amount,
		Currency:       payment.Currency,
		IdempotencyKey: payment.ExternalPaymentID,
		Metadata: map[string]string{
			gateway.MetadataPaymentID:         payment.ID,
			gateway.MetadataOrderID:           payment.OrderID,
			gateway.MetadataExternalPaymentID: payment.ExternalPaymentID,
		},
	})
	if err != nil {
		s.log.Error("Payment intent creation failed, payment left pending",
			zap.String("payment_id", payment.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	payment.IntentID = intentID
	return payment, nil
}

// ProcessPaymentWebhook applies a gateway webhook event to a payment.
// Re-delivery of an event that was already applied fails with
// ErrAlreadySettled and changes nothing. receivedAt is used as the
// settlement time when the event carries none.
func (s *PaymentService) ProcessPaymentWebhook(ctx context.Context, paymentID string, payload []byte, signature string, receivedAt time.Time) (*models.Payment, error) {
	payment, order, err := s.pendingPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	event, err := s.verify(paymentID, payload, signature)
	if err != nil {
		return nil, err
	}
	if event.PaymentID != "" && event.PaymentID != paymentID {
		return nil, fmt.Errorf("%w: event %s is for payment %s", ErrInvalidInput, event.ID, event.PaymentID)
	}
	return s.apply(ctx, payment, order, event, receivedAt)
}

// ProcessGatewayWebhook handles an event posted to the gateway's single
// endpoint. The payment is taken from the metadata of the verified event.
func (s *PaymentService) ProcessGatewayWebhook(ctx context.Context, payload []byte, signature string, receivedAt time.Time) (*models.Payment, error) {
	event, err := s.verify("", payload, signature)
	if err != nil {
		return nil, err
	}
	if event.Kind == gateway.EventUnhandled {
		return nil, fmt.Errorf("%w: %s", ErrUnhandledEventType, event.Type)
	}
	if event.PaymentID == "" {
		return nil, fmt.Errorf("%w: event %s carries no payment id", ErrInvalidInput, event.ID)
	}

	payment, order, err := s.pendingPayment(ctx, event.PaymentID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, payment, order, event, receivedAt)
}

// pendingPayment loads a payment and its order, failing with
// ErrAlreadySettled once the order has left PENDING.
func (s *PaymentService) pendingPayment(ctx context.Context, paymentID string) (*models.Payment, *models.Order, error) {
	payment, err := s.store.Payments().GetByID(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	order, err := s.store.Orders().GetByID(ctx, payment.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if order.Status != models.OrderStatusPending {
		return nil, nil, fmt.Errorf("%w: order %s is %s", ErrAlreadySettled, order.ID, order.Status)
	}
	return payment, order, nil
}

func (s *PaymentService) verify(paymentID string, payload []byte, signature string) (gateway.Event, error) {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		s.log.Warn("Webhook signature verification failed", zap.String("payment_id", paymentID), zap.Error(err))
		return gateway.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return event, nil
}

func (s *PaymentService) apply(ctx context.Context, payment *models.Payment, order *models.Order, event gateway.Event, receivedAt time.Time) (*models.Payment, error) {
	s.log.Info("Processing payment webhook",
		zap.String("payment_id", payment.ID),
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
	)

	at := event.Timestamp
	if at.IsZero() {
		at = receivedAt
	}

	switch event.Kind {
	case gateway.EventPaymentSucceeded:
		return s.settleSucceeded(ctx, payment, order, event.ObjectID, at)
	case gateway.EventPaymentFailed:
		return s.settleFailed(ctx, payment)
	case gateway.EventUnhandled:
		return nil, fmt.Errorf("%w: %s", ErrUnhandledEventType, event.Type)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnhandledEventType, event.Kind)
	}
}

func (s *PaymentService) settleSucceeded(ctx context.Context, payment *models.Payment, order *models.Order, externalID string, at time.Time) (*models.Payment, error) {
	if externalID == "" {
		externalID = payment.ExternalPaymentID
	}

	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		ok, err := tx.Payments().MarkPaid(ctx, payment.ID, externalID, at)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: payment %s", ErrAlreadySettled, payment.ID)
		}
		ok, err = tx.Orders().TransitionStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusApproved)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: order %s", ErrAlreadySettled, order.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	payment.Status = models.PaymentStatusPaid
	payment.PaymentAt = &at
	payment.ExternalPaymentID = externalID
	s.log.Info("Payment succeeded, order approved",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", order.ID),
	)

	// The cascade has committed; stock alerts can only be lost, never undo it.
	s.alerts.Dispatch(ctx, order.ProductItemIDs())
	return payment, nil
}

func (s *PaymentService) settleFailed(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	ok, err := s.store.Payments().MarkFailed(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: payment %s", ErrAlreadySettled, payment.ID)
	}

	payment.Status = models.PaymentStatusFailed
	s.log.Info("Payment failed", zap.String("payment_id", payment.ID), zap.String("order_id", payment.OrderID))
	return payment, nil
}
