package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"fulfillment/internal/models"
	"fulfillment/internal/repositories"
	"fulfillment/internal/services"
	"fulfillment/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockJobQueue is a mock implementation of services.JobQueue.
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) Enqueue(ctx context.Context, jobType string, payload []byte) error {
	args := m.Called(ctx, jobType, payload)
	return args.Error(0)
}

func favorite(t *testing.T, store repositories.Store, userID, itemID string, at time.Time) {
	t.Helper()
	require.NoError(t, store.Favorites().Add(context.Background(), &models.Favorite{
		UserID:        userID,
		ProductItemID: itemID,
		CreatedAt:     at,
	}))
}

func orderWithStatus(t *testing.T, store repositories.Store, userID, itemID string, status models.OrderStatus) {
	t.Helper()
	require.NoError(t, store.Orders().Create(context.Background(), &models.Order{
		UserID:          userID,
		ShippingAddress: "12 Main Street",
		Status:          status,
		OrderDate:       time.Now(),
		Total:           decimal.RequireFromString("10.00"),
		Lines: []models.OrderLine{{
			ProductItemID: itemID,
			Quantity:      1,
			UnitPrice:     decimal.RequireFromString("10.00"),
		}},
	}))
}

func decodeJob(t *testing.T, job testutil.Job) services.LowStockJob {
	t.Helper()
	var out services.LowStockJob
	require.NoError(t, json.Unmarshal(job.Payload, &out))
	return out
}

func TestStockAlertService_CheckStockAndNotify(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	queue := &testutil.FakeQueue{}
	svc := services.NewStockAlertService(store, queue, 3, zaptest.NewLogger(t))

	item := testutil.SeedItem(t, store, "A", "10.00", 2)
	favorite(t, store, "user-1", item.ID, time.Now().Add(-time.Hour))

	require.NoError(t, svc.CheckStockAndNotify(ctx, item.ID))

	jobs := queue.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, services.JobLowStockAlert, jobs[0].Type)
	job := decodeJob(t, jobs[0])
	assert.Equal(t, "user-1", job.UserID)
	assert.Equal(t, item.ID, job.ProductItemID)
	assert.Equal(t, "A", job.SKU)
	assert.Equal(t, 2, job.Stock)

	notified, err := store.StockAlerts().Exists(ctx, "user-1", item.ID)
	require.NoError(t, err)
	assert.True(t, notified)

	// The same user is never told twice.
	err = svc.CheckStockAndNotify(ctx, item.ID)
	assert.ErrorIs(t, err, services.ErrAlreadyNotified)
	assert.True(t, services.IsStockAlertNoop(err))
	assert.Len(t, queue.Jobs(), 1)
}

func TestStockAlertService_Threshold(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	queue := &testutil.FakeQueue{}
	svc := services.NewStockAlertService(store, queue, 3, zaptest.NewLogger(t))

	above := testutil.SeedItem(t, store, "ABOVE", "1.00", 4)
	at := testutil.SeedItem(t, store, "AT", "1.00", 3)
	favorite(t, store, "user-1", above.ID, time.Now())
	favorite(t, store, "user-1", at.ID, time.Now())

	err := svc.CheckStockAndNotify(ctx, above.ID)
	assert.ErrorIs(t, err, services.ErrNoActionNeeded)
	assert.Empty(t, queue.Jobs())

	require.NoError(t, svc.CheckStockAndNotify(ctx, at.ID))
	assert.Len(t, queue.Jobs(), 1)
}

func TestStockAlertService_NotFound(t *testing.T) {
	svc := services.NewStockAlertService(newStore(t), &testutil.FakeQueue{}, 3, zaptest.NewLogger(t))

	err := svc.CheckStockAndNotify(context.Background(), "missing")
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.False(t, services.IsStockAlertNoop(err))
}

func TestStockAlertService_NoEligibleUser(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	queue := &testutil.FakeQueue{}
	svc := services.NewStockAlertService(store, queue, 3, zaptest.NewLogger(t))

	item := testutil.SeedItem(t, store, "A", "10.00", 1)
	err := svc.CheckStockAndNotify(ctx, item.ID)
	assert.ErrorIs(t, err, services.ErrNoEligibleUser)

	// A buyer of the item no longer counts.
	favorite(t, store, "user-1", item.ID, time.Now())
	orderWithStatus(t, store, "user-1", item.ID, models.OrderStatusApproved)
	err = svc.CheckStockAndNotify(ctx, item.ID)
	assert.ErrorIs(t, err, services.ErrNoEligibleUser)
	assert.Empty(t, queue.Jobs())
}

func TestStockAlertService_PicksMostRecentEligibleFavorite(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	queue := &testutil.FakeQueue{}
	svc := services.NewStockAlertService(store, queue, 3, zaptest.NewLogger(t))

	item := testutil.SeedItem(t, store, "A", "10.00", 1)
	now := time.Now()
	favorite(t, store, "user-old", item.ID, now.Add(-3*time.Hour))
	favorite(t, store, "user-mid", item.ID, now.Add(-2*time.Hour))
	favorite(t, store, "user-buyer", item.ID, now.Add(-time.Hour))
	orderWithStatus(t, store, "user-buyer", item.ID, models.OrderStatusApproved)
	// Orders that never completed do not disqualify.
	orderWithStatus(t, store, "user-mid", item.ID, models.OrderStatusCancelled)
	orderWithStatus(t, store, "user-mid", item.ID, models.OrderStatusPending)

	require.NoError(t, svc.CheckStockAndNotify(ctx, item.ID))
	jobs := queue.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "user-mid", decodeJob(t, jobs[0]).UserID)

	// Once user-mid was told, the check stops there rather than moving on.
	err := svc.CheckStockAndNotify(ctx, item.ID)
	assert.ErrorIs(t, err, services.ErrAlreadyNotified)
	assert.Len(t, queue.Jobs(), 1)
}

func TestStockAlertService_EnqueueFailureLeavesNoDedupRow(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	queue := new(MockJobQueue)
	svc := services.NewStockAlertService(store, queue, 3, zaptest.NewLogger(t))

	item := testutil.SeedItem(t, store, "A", "10.00", 1)
	favorite(t, store, "user-1", item.ID, time.Now())

	queue.On("Enqueue", mock.Anything, services.JobLowStockAlert, mock.Anything).Return(errors.New("broker down")).Once()
	queue.On("Enqueue", mock.Anything, services.JobLowStockAlert, mock.Anything).Return(nil).Once()

	err := svc.CheckStockAndNotify(ctx, item.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")

	notified, err := store.StockAlerts().Exists(ctx, "user-1", item.ID)
	require.NoError(t, err)
	assert.False(t, notified)

	// The retry can still notify.
	require.NoError(t, svc.CheckStockAndNotify(ctx, item.ID))
	notified, err = store.StockAlerts().Exists(ctx, "user-1", item.ID)
	require.NoError(t, err)
	assert.True(t, notified)

	queue.AssertExpectations(t)
}
