package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetByUserID implements CartRepository.
func (r *GORMCartRepository) GetByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		First(&cart, "user_id = ?", userID).Error
	if err != nil {
		return nil, notFoundOr(err, "cart of user %s", userID)
	}
	return &cart, nil
}

// AddItem implements CartRepository.
func (r *GORMCartRepository) AddItem(ctx context.Context, userID, productItemID string, qty int) (*models.Cart, error) {
	db := r.db.WithContext(ctx)

	var cart models.Cart
	err := db.First(&cart, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{ID: uuid.New().String(), UserID: userID}
		err = db.Create(&cart).Error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart of user %s: %w", userID, err)
	}

	now := time.Now()
	item := models.CartItem{
		ID:            uuid.New().String(),
		CartID:        cart.ID,
		ProductItemID: productItemID,
		Quantity:      qty,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(&item).Error
	if err != nil {
		return nil, fmt.Errorf("failed to add item %s to cart: %w", productItemID, err)
	}
	return r.GetByUserID(ctx, userID)
}

// ClearItems removes every item from a cart. The cart row itself is kept.
func (r *GORMCartRepository) ClearItems(ctx context.Context, cartID string) error {
	if err := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart %s: %w", cartID, err)
	}
	return nil
}
