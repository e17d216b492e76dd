package repositories

import (
	"context"
	"fmt"
	"time"

	"fulfillment/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of InventoryRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetByID retrieves a single product item by its ID.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.ProductItem, error) {
	var item models.ProductItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "product item %s", id)
	}
	return &item, nil
}

// GetByIDs retrieves the product items with the given IDs keyed by ID.
// Unknown IDs are simply absent from the result.
func (r *GORMProductRepository) GetByIDs(ctx context.Context, ids []string) (map[string]models.ProductItem, error) {
	var items []models.ProductItem
	if len(ids) > 0 {
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
			return nil, fmt.Errorf("failed to get product items: %w", err)
		}
	}
	out := make(map[string]models.ProductItem, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

// Create creates a new product item.
func (r *GORMProductRepository) Create(ctx context.Context, item *models.ProductItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create product item: %w", err)
	}
	return nil
}

// DecrementStock implements InventoryRepository. The stock condition and the
// write are one statement, so concurrent callers cannot both pass the check.
func (r *GORMProductRepository) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ProductItem{}).
		Where("id = ? AND stock >= ?", id, qty).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to decrement stock of product item %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// IncrementStock adds qty units back to a product item.
func (r *GORMProductRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	res := r.db.WithContext(ctx).
		Model(&models.ProductItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", qty),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to increment stock of product item %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product item %s: %w", id, ErrNotFound)
	}
	return nil
}
