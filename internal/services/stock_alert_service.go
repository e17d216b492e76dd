package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/models"
	"fulfillment/internal/repositories"

	"go.uber.org/zap"
)

// DefaultLowStockThreshold is the stock level at or below which a low-stock
// notification is considered.
const DefaultLowStockThreshold = 3

// JobLowStockAlert is the queue job type for low-stock notifications.
const JobLowStockAlert = "stock_alert.low_stock"

// LowStockJob is the payload of a JobLowStockAlert job.
type LowStockJob struct {
	UserID        string    `json:"user_id"`
	ProductItemID string    `json:"product_item_id"`
	SKU           string    `json:"sku"`
	Stock         int       `json:"stock"`
	RequestedAt   time.Time `json:"requested_at"`
}

// JobQueue is a durable queue consumed by the notification worker.
type JobQueue interface {
	Enqueue(ctx context.Context, jobType string, payload []byte) error
}

// purchaseStatuses are the order statuses that count as a completed purchase
// when deciding who is eligible for a low-stock notification.
var purchaseStatuses = []models.OrderStatus{models.OrderStatusApproved}

// StockAlertService decides whether a low-stock notification fires for an
// item and guarantees it fires at most once per (user, item).
type StockAlertService struct {
	store     repositories.Store
	queue     JobQueue
	threshold int
	log       *zap.Logger
	now       func() time.Time
}

// NewStockAlertService creates a new StockAlertService.
func NewStockAlertService(store repositories.Store, queue JobQueue, threshold int, log *zap.Logger) *StockAlertService {
	return &StockAlertService{
		store:     store,
		queue:     queue,
		threshold: threshold,
		log:       log,
		now:       time.Now,
	}
}

// CheckStockAndNotify enqueues a low-stock notification for the most recent
// eligible favoriter of the item. ErrNoActionNeeded, ErrNoEligibleUser and
// ErrAlreadyNotified mean nothing had to be sent.
func (s *StockAlertService) CheckStockAndNotify(ctx context.Context, productItemID string) error {
	item, err := s.store.Inventory().GetByID(ctx, productItemID)
	if err != nil {
		return err
	}
	if item.Stock > s.threshold {
		return fmt.Errorf("%w: %s has %d units", ErrNoActionNeeded, item.SKU, item.Stock)
	}

	userID, err := s.store.Favorites().LatestEligibleUser(ctx, productItemID, purchaseStatuses)
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNoEligibleUser, item.SKU)
	}
	if err != nil {
		return err
	}

	notified, err := s.store.StockAlerts().Exists(ctx, userID, productItemID)
	if err != nil {
		return err
	}
	if notified {
		return fmt.Errorf("%w: user %s about %s", ErrAlreadyNotified, userID, item.SKU)
	}

	now := s.now()
	payload, err := json.Marshal(LowStockJob{
		UserID:        userID,
		ProductItemID: productItemID,
		SKU:           item.SKU,
		Stock:         item.Stock,
		RequestedAt:   now,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal low stock job: %w", err)
	}

	// The dedup row and the enqueue share a transaction: a failed enqueue
	// rolls the row back so a later check can still notify.
	var enqueued bool
	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		created, err := tx.StockAlerts().Create(ctx, &models.StockAlert{
			UserID:        userID,
			ProductItemID: productItemID,
			NotifiedAt:    now,
		})
		if err != nil {
			return err
		}
		if !created {
			return fmt.Errorf("%w: user %s about %s", ErrAlreadyNotified, userID, item.SKU)
		}
		if err := s.queue.Enqueue(ctx, JobLowStockAlert, payload); err != nil {
			return fmt.Errorf("failed to enqueue low stock job: %w", err)
		}
		enqueued = true
		return nil
	})
	if err != nil {
		if enqueued {
			// The job is out but the dedup row is lost: the user may be
			// notified again.
			s.log.Error("Stock alert enqueued but not recorded",
				zap.String("user_id", userID),
				zap.String("product_item_id", productItemID),
				zap.Error(err),
			)
		}
		return err
	}

	s.log.Info("Low stock notification enqueued",
		zap.String("user_id", userID),
		zap.String("product_item_id", productItemID),
		zap.Int("stock", item.Stock),
	)
	return nil
}

// IsStockAlertNoop reports whether err only says that nothing had to be sent.
func IsStockAlertNoop(err error) bool {
	return errors.Is(err, ErrNoActionNeeded) ||
		errors.Is(err, ErrNoEligibleUser) ||
		errors.Is(err, ErrAlreadyNotified)
}
