package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductItem is a sellable variant of a catalog product. Stock is the only
// field the fulfillment core mutates.
type ProductItem struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SKU       string          `json:"sku" gorm:"uniqueIndex;type:varchar(64);not null"`
	Name      string          `json:"name" gorm:"type:varchar(100)"`
	Price     decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	Stock     int             `json:"stock" gorm:"not null;check:stock >= 0"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
