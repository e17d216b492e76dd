package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fulfillment/internal/models"
	"fulfillment/internal/repositories"
	"fulfillment/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *repositories.GORMStore {
	t.Helper()
	return repositories.NewGORMStore(testutil.NewDB(t))
}

func TestInventory_DecrementStock(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	item := testutil.SeedItem(t, store, "A", "10.00", 3)

	ok, err := store.Inventory().DecrementStock(ctx, item.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, testutil.Stock(t, store, item.ID))

	ok, err = store.Inventory().DecrementStock(ctx, item.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, testutil.Stock(t, store, item.ID))

	require.NoError(t, store.Inventory().IncrementStock(ctx, item.ID, 4))
	assert.Equal(t, 5, testutil.Stock(t, store, item.ID))

	err = store.Inventory().IncrementStock(ctx, "missing", 1)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestInventory_GetByIDs(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	a := testutil.SeedItem(t, store, "A", "1.00", 1)
	b := testutil.SeedItem(t, store, "B", "2.50", 2)

	items, err := store.Inventory().GetByIDs(ctx, []string{a.ID, b.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, "2.50", items[b.ID].Price.StringFixed(2))

	_, err = store.Inventory().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestInventory_CreateEnforcesColumnConstraints(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	testutil.SeedItem(t, store, "A", "1.00", 1)

	err := store.Inventory().Create(ctx, &models.ProductItem{SKU: "A", Name: "Duplicate", Price: decimal.RequireFromString("1.00")})
	assert.Error(t, err)

	err = store.Inventory().Create(ctx, &models.ProductItem{SKU: "B", Name: "Negative", Price: decimal.RequireFromString("1.00"), Stock: -1})
	assert.Error(t, err)
}

func TestCart_AddItemAndClear(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	item := testutil.SeedItem(t, store, "A", "1.00", 10)

	_, err := store.Carts().GetByUserID(ctx, "user-1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = store.Carts().AddItem(ctx, "user-1", item.ID, 1)
	require.NoError(t, err)
	cart, err := store.Carts().AddItem(ctx, "user-1", item.ID, 4)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	require.NoError(t, store.Carts().ClearItems(ctx, cart.ID))
	cart, err = store.Carts().GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestOrders_CreateGetAndTransition(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	a := testutil.SeedItem(t, store, "A", "1.00", 10)
	b := testutil.SeedItem(t, store, "B", "2.00", 10)

	order := &models.Order{
		UserID:          "user-1",
		ShippingAddress: "12 Main Street",
		Status:          models.OrderStatusPending,
		OrderDate:       time.Now(),
		Total:           decimal.RequireFromString("5.00"),
		Lines: []models.OrderLine{
			{ProductItemID: b.ID, Quantity: 2, UnitPrice: decimal.RequireFromString("2.00")},
			{ProductItemID: a.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("1.00")},
		},
	}
	require.NoError(t, store.Orders().Create(ctx, order))
	require.NotEmpty(t, order.ID)

	got, err := store.Orders().GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, b.ID, got.Lines[0].ProductItemID)
	assert.Equal(t, a.ID, got.Lines[1].ProductItemID)
	assert.Equal(t, []string{b.ID, a.ID}, got.ProductItemIDs())

	ok, err := store.Orders().TransitionStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusApproved)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Orders().TransitionStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Orders().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestPayments_UniquePerOrderAndSettleOnce(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	payment := &models.Payment{
		ID:                "pay-1",
		OrderID:           "order-1",
		UserID:            "user-1",
		ExternalPaymentID: "ext-1",
		Amount:            decimal.RequireFromString("20.00"),
		Currency:          "usd",
		Status:            models.PaymentStatusPending,
	}
	require.NoError(t, store.Payments().Create(ctx, payment))

	dup := *payment
	dup.ID = "pay-2"
	assert.Error(t, store.Payments().Create(ctx, &dup))

	got, err := store.Payments().GetByOrderID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, "pay-1", got.ID)

	paidAt := time.Now().Truncate(time.Second)
	ok, err := store.Payments().MarkPaid(ctx, "pay-1", "pi_1", paidAt)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Payments().MarkFailed(ctx, "pay-1")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = store.Payments().GetByID(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, got.Status)
	assert.Equal(t, "pi_1", got.ExternalPaymentID)
	require.NotNil(t, got.PaymentAt)
	assert.Equal(t, paidAt.Unix(), got.PaymentAt.Unix())
}

func TestFavorites_LatestEligibleUser(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	item := testutil.SeedItem(t, store, "A", "1.00", 1)
	approved := []models.OrderStatus{models.OrderStatusApproved}

	_, err := store.Favorites().LatestEligibleUser(ctx, item.ID, approved)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	at := time.Now().Add(-time.Hour)
	require.NoError(t, store.Favorites().Add(ctx, &models.Favorite{UserID: "user-b", ProductItemID: item.ID, CreatedAt: at}))
	require.NoError(t, store.Favorites().Add(ctx, &models.Favorite{UserID: "user-a", ProductItemID: item.ID, CreatedAt: at}))
	// Favoriting again keeps the original timestamp.
	require.NoError(t, store.Favorites().Add(ctx, &models.Favorite{UserID: "user-a", ProductItemID: item.ID, CreatedAt: time.Now()}))

	userID, err := store.Favorites().LatestEligibleUser(ctx, item.ID, approved)
	require.NoError(t, err)
	assert.Equal(t, "user-a", userID, "ties break on user id")

	require.NoError(t, store.Orders().Create(ctx, &models.Order{
		UserID:          "user-a",
		ShippingAddress: "12 Main Street",
		Status:          models.OrderStatusApproved,
		OrderDate:       time.Now(),
		Total:           decimal.RequireFromString("1.00"),
		Lines:           []models.OrderLine{{ProductItemID: item.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("1.00")}},
	}))

	userID, err = store.Favorites().LatestEligibleUser(ctx, item.ID, approved)
	require.NoError(t, err)
	assert.Equal(t, "user-b", userID)
}

func TestStockAlerts_CreateOnce(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	created, err := store.StockAlerts().Create(ctx, &models.StockAlert{UserID: "user-1", ProductItemID: "item-1"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.StockAlerts().Create(ctx, &models.StockAlert{UserID: "user-1", ProductItemID: "item-1"})
	require.NoError(t, err)
	assert.False(t, created)

	exists, err := store.StockAlerts().Exists(ctx, "user-1", "item-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.StockAlerts().Exists(ctx, "user-2", "item-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	item := testutil.SeedItem(t, store, "A", "1.00", 5)
	boom := errors.New("boom")

	err := store.Transaction(ctx, func(tx repositories.Store) error {
		ok, err := tx.Inventory().DecrementStock(ctx, item.ID, 5)
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 5, testutil.Stock(t, store, item.ID))
}
