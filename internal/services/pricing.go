package services

import (
	"context"
	"fmt"

	"fulfillment/internal/models"
	"fulfillment/internal/repositories"
)

// PriceSnapshot resolves current prices and stock for a set of items at
// order-creation time. The returned prices are copied into order lines and
// never looked up again.
type PriceSnapshot struct{}

// Snapshot reads every item through inventory. Any unknown id fails the
// whole snapshot with ErrNotFound.
func (PriceSnapshot) Snapshot(ctx context.Context, inventory repositories.InventoryRepository, ids []string) (map[string]models.ProductItem, error) {
	items, err := inventory.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := items[id]; !ok {
			return nil, fmt.Errorf("product item %s: %w", id, ErrNotFound)
		}
	}
	return items, nil
}
