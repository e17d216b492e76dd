package repositories

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Store groups the repositories used by the fulfillment core. Repositories
// obtained from the Store passed to Transaction's callback share one
// database transaction.
type Store interface {
	Carts() CartRepository
	Orders() OrderRepository
	Inventory() InventoryRepository
	Payments() PaymentRepository
	Favorites() FavoriteRepository
	StockAlerts() StockAlertRepository

	// Transaction runs fn atomically. If fn returns an error every write made
	// through tx is rolled back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// GORMStore is a GORM implementation of Store.
type GORMStore struct {
	db *gorm.DB
}

// NewGORMStore creates a new instance of GORMStore.
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{db: db}
}

// DB returns the underlying handle.
func (s *GORMStore) DB() *gorm.DB { return s.db }

func (s *GORMStore) Carts() CartRepository { return NewGORMCartRepository(s.db) }
func (s *GORMStore) Orders() OrderRepository { return NewGORMOrderRepository(s.db) }
func (s *GORMStore) Inventory() InventoryRepository { return NewGORMProductRepository(s.db) }
func (s *GORMStore) Payments() PaymentRepository { return NewGORMPaymentRepository(s.db) }
func (s *GORMStore) Favorites() FavoriteRepository { return NewGORMFavoriteRepository(s.db) }
func (s *GORMStore) StockAlerts() StockAlertRepository { return NewGORMStockAlertRepository(s.db) }

// Transaction implements Store.
func (s *GORMStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GORMStore{db: tx})
	})
}

// AutoMigrate creates or updates every table used by the store.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.ProductItem{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderLine{},
		&models.Payment{},
		&models.Favorite{},
		&models.StockAlert{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
