package repositories

import (
	"context"

	"fulfillment/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// Create persists the order together with its lines.
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// TransitionStatus moves the order from one status to another and
	// reports false when the order was not in status from.
	TransitionStatus(ctx context.Context, id string, from, to models.OrderStatus) (bool, error)
}
