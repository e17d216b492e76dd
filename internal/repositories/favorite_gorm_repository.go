package repositories

import (
	"context"
	"fmt"
	"time"

	"fulfillment/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMFavoriteRepository is a GORM implementation of FavoriteRepository.
type GORMFavoriteRepository struct {
	db *gorm.DB
}

// NewGORMFavoriteRepository creates a new instance of GORMFavoriteRepository.
func NewGORMFavoriteRepository(db *gorm.DB) *GORMFavoriteRepository {
	return &GORMFavoriteRepository{db: db}
}

// Add records a favorite. Favoriting the same item twice keeps the first row.
func (r *GORMFavoriteRepository) Add(ctx context.Context, favorite *models.Favorite) error {
	if favorite.CreatedAt.IsZero() {
		favorite.CreatedAt = time.Now()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(favorite).Error
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

const latestEligibleUserQuery = `
SELECT f.user_id
FROM favorites f
WHERE f.product_item_id = ?
  AND NOT EXISTS (
    SELECT 1
    FROM order_lines ol
    JOIN orders o ON o.id = ol.order_id
    WHERE ol.product_item_id = f.product_item_id
      AND o.user_id = f.user_id
      AND o.status IN ?
  )
ORDER BY f.created_at DESC, f.user_id ASC
LIMIT 1`

// LatestEligibleUser implements FavoriteRepository.
func (r *GORMFavoriteRepository) LatestEligibleUser(ctx context.Context, productItemID string, purchaseStatuses []models.OrderStatus) (string, error) {
	statuses := make([]string, 0, len(purchaseStatuses))
	for _, s := range purchaseStatuses {
		statuses = append(statuses, string(s))
	}

	var userIDs []string
	err := r.db.WithContext(ctx).Raw(latestEligibleUserQuery, productItemID, statuses).Scan(&userIDs).Error
	if err != nil {
		return "", fmt.Errorf("failed to find eligible user for product item %s: %w", productItemID, err)
	}
	if len(userIDs) == 0 {
		return "", fmt.Errorf("eligible user for product item %s: %w", productItemID, ErrNotFound)
	}
	return userIDs[0], nil
}

// GORMStockAlertRepository is a GORM implementation of StockAlertRepository.
type GORMStockAlertRepository struct {
	db *gorm.DB
}

// NewGORMStockAlertRepository creates a new instance of GORMStockAlertRepository.
func NewGORMStockAlertRepository(db *gorm.DB) *GORMStockAlertRepository {
	return &GORMStockAlertRepository{db: db}
}

// Exists implements StockAlertRepository.
func (r *GORMStockAlertRepository) Exists(ctx context.Context, userID, productItemID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.StockAlert{}).
		Where("user_id = ? AND product_item_id = ?", userID, productItemID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up stock alert: %w", err)
	}
	return n > 0, nil
}

// Create implements StockAlertRepository.
func (r *GORMStockAlertRepository) Create(ctx context.Context, alert *models.StockAlert) (bool, error) {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.NotifiedAt.IsZero() {
		alert.NotifiedAt = time.Now()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_item_id"}},
			DoNothing: true,
		}).
		Create(alert)
	if res.Error != nil {
		return false, fmt.Errorf("failed to create stock alert: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
