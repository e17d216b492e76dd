package services

import (
	"context"
	"fmt"
	"sort"

	"fulfillment/internal/models"
	"fulfillment/internal/repositories"
)

// StockRequest asks for qty units of one product item.
type StockRequest struct {
	ProductItemID string
	Quantity      int
}

// InventoryLedger applies check-and-reserve stock changes. It must be used
// with repositories bound to the caller's transaction.
type InventoryLedger struct{}

// Shortfalls compares requests with a stock snapshot and returns every line
// that cannot be served.
func (InventoryLedger) Shortfalls(requests []StockRequest, items map[string]models.ProductItem) []StockShortfall {
	var short []StockShortfall
	for _, r := range requests {
		item := items[r.ProductItemID]
		if r.Quantity > item.Stock {
			short = append(short, StockShortfall{
				ProductItemID: r.ProductItemID,
				SKU:           item.SKU,
				Requested:     r.Quantity,
				Available:     item.Stock,
			})
		}
	}
	return short
}

// Reserve decrements stock for every request with a conditional update.
// Requests are applied in product id order so concurrent reservations lock
// rows in the same sequence. A request that no longer fits fails with an
// *InsufficientStockError and the caller must roll back.
func (InventoryLedger) Reserve(ctx context.Context, inventory repositories.InventoryRepository, requests []StockRequest) error {
	ordered := append([]StockRequest(nil), requests...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ProductItemID < ordered[j].ProductItemID })

	for _, r := range ordered {
		ok, err := inventory.DecrementStock(ctx, r.ProductItemID, r.Quantity)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		item, err := inventory.GetByID(ctx, r.ProductItemID)
		if err != nil {
			return err
		}
		return &InsufficientStockError{Lines: []StockShortfall{{
			ProductItemID: r.ProductItemID,
			SKU:           item.SKU,
			Requested:     r.Quantity,
			Available:     item.Stock,
		}}}
	}
	return nil
}

// Release puts reserved units back into stock.
func (InventoryLedger) Release(ctx context.Context, inventory repositories.InventoryRepository, requests []StockRequest) error {
	for _, r := range requests {
		if err := inventory.IncrementStock(ctx, r.ProductItemID, r.Quantity); err != nil {
			return fmt.Errorf("failed to release %d units of %s: %w", r.Quantity, r.ProductItemID, err)
		}
	}
	return nil
}
