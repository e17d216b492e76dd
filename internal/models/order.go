package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusApproved  OrderStatus = "APPROVED"
	OrderStatusRejected  OrderStatus = "REJECTED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusApproved, OrderStatusRejected, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderLine represents a single priced entry within an order.
// UnitPrice is the price at the time the order was created.
type OrderLine struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID       string          `json:"order_id" gorm:"type:varchar(36);not null;index"`
	ProductItemID string          `json:"product_item_id" gorm:"type:varchar(36);not null;index"`
	Quantity      int             `json:"quantity" gorm:"not null;check:quantity > 0"`
	UnitPrice     decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	Position      int             `json:"-" gorm:"not null;default:0"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Subtotal returns quantity × unit price.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order represents a customer order.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID          string          `json:"user_id" gorm:"type:varchar(36);not null;index"`
	ShippingAddress string          `json:"shipping_address" gorm:"type:varchar(100);not null"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);not null;index"`
	OrderDate       time.Time       `json:"order_date" gorm:"not null"`
	Total           decimal.Decimal `json:"total" gorm:"type:numeric(12,2);not null"`
	Lines           []OrderLine     `json:"lines" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ProductItemIDs returns the distinct product item ids referenced by the
// order lines, in line order.
func (o *Order) ProductItemIDs() []string {
	seen := make(map[string]struct{}, len(o.Lines))
	ids := make([]string, 0, len(o.Lines))
	for _, l := range o.Lines {
		if _, ok := seen[l.ProductItemID]; ok {
			continue
		}
		seen[l.ProductItemID] = struct{}{}
		ids = append(ids, l.ProductItemID)
	}
	return ids
}
