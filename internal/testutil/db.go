// Package testutil provides helpers shared by store-backed tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"fulfillment/internal/models"
	"fulfillment/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with every table migrated.
// The pool is limited to one connection so transactions run one at a time,
// the way SQLite serializes writers anyway.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "failed to connect to in-memory database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repositories.AutoMigrate(db))
	return db
}

// SeedItem inserts a product item with the given SKU, price and stock.
func SeedItem(t *testing.T, store repositories.Store, sku, price string, stock int) *models.ProductItem {
	t.Helper()

	item := &models.ProductItem{
		SKU:   sku,
		Name:  "Item " + sku,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	require.NoError(t, store.Inventory().Create(context.Background(), item))
	return item
}

// Stock returns the current stock of a product item.
func Stock(t *testing.T, store repositories.Store, itemID string) int {
	t.Helper()

	item, err := store.Inventory().GetByID(context.Background(), itemID)
	require.NoError(t, err)
	return item.Stock
}
