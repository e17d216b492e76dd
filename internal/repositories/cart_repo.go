package repositories

import (
	"context"

	"fulfillment/internal/models"
)

// CartRepository defines data access for shopping carts.
type CartRepository interface {
	// GetByUserID returns the user's cart with its items.
	GetByUserID(ctx context.Context, userID string) (*models.Cart, error)
	// AddItem puts qty units of an item into the user's cart, creating the
	// cart when needed. An item already in the cart has its quantity replaced.
	AddItem(ctx context.Context, userID, productItemID string, qty int) (*models.Cart, error)
	ClearItems(ctx context.Context, cartID string) error
}
