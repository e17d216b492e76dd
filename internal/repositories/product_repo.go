package repositories

import (
	"context"

	"fulfillment/internal/models"
)

// InventoryRepository defines data access for sellable product items and
// their stock.
type InventoryRepository interface {
	GetByID(ctx context.Context, id string) (*models.ProductItem, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]models.ProductItem, error)
	Create(ctx context.Context, item *models.ProductItem) error
	// DecrementStock subtracts qty only when at least qty units are in stock.
	// It reports false when the condition did not hold.
	DecrementStock(ctx context.Context, id string, qty int) (bool, error)
	IncrementStock(ctx context.Context, id string, qty int) error
}
