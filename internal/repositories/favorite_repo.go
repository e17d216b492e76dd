package repositories

import (
	"context"

	"fulfillment/internal/models"
)

// FavoriteRepository defines read access to user favorites.
type FavoriteRepository interface {
	Add(ctx context.Context, favorite *models.Favorite) error
	// LatestEligibleUser returns the user who most recently favorited the
	// item and has no order in one of purchaseStatuses containing it.
	LatestEligibleUser(ctx context.Context, productItemID string, purchaseStatuses []models.OrderStatus) (string, error)
}

// StockAlertRepository defines access to the stock alert dedup facts.
type StockAlertRepository interface {
	Exists(ctx context.Context, userID, productItemID string) (bool, error)
	// Create inserts the alert and reports false when an alert for the same
	// (user, item) pair already existed.
	Create(ctx context.Context, alert *models.StockAlert) (bool, error)
}
