package models

import "time"

// Favorite records that a user favorited a product item.
type Favorite struct {
	UserID        string    `json:"user_id" gorm:"primaryKey;type:varchar(36)"`
	ProductItemID string    `json:"product_item_id" gorm:"primaryKey;type:varchar(36);index"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null;index"`
}

// StockAlert is the dedup fact that a user has been notified about an item
// running low. At most one row exists per (user, item).
type StockAlert struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID        string    `json:"user_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_stock_alert_user_item"`
	ProductItemID string    `json:"product_item_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_stock_alert_user_item"`
	NotifiedAt    time.Time `json:"notified_at" gorm:"not null"`
}
