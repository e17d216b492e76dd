package models

import "time"

// Cart is a user's shopping cart. A user owns at most one cart.
type Cart struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string     `json:"user_id" gorm:"type:varchar(36);uniqueIndex;not null"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is one product item and quantity inside a cart.
type CartItem struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CartID        string    `json:"cart_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_item_product"`
	ProductItemID string    `json:"product_item_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_item_product"`
	Quantity      int       `json:"quantity" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
