package services

import (
	"errors"
	"fmt"
	"strings"

	"fulfillment/internal/repositories"
)

// Client-visible failures of order and payment creation.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = repositories.ErrNotFound
)

// Webhook failures. None of them mutate state.
var (
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrUnhandledEventType = errors.New("unhandled webhook event type")
	ErrAlreadySettled     = errors.New("already settled")
)

// Stock alert outcomes. They are no-ops for the payment flow and are only
// logged.
var (
	ErrNoActionNeeded  = errors.New("stock above low-stock threshold")
	ErrNoEligibleUser  = errors.New("no eligible user to notify")
	ErrAlreadyNotified = errors.New("user already notified")
)

// ErrGatewayUnavailable wraps failures of the outbound payment gateway call.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// StockShortfall describes one cart line that cannot be fulfilled.
type StockShortfall struct {
	ProductItemID string `json:"product_item_id"`
	SKU           string `json:"sku"`
	Requested     int    `json:"requested"`
	Available     int    `json:"available"`
}

// InsufficientStockError lists every short line of a rejected order.
type InsufficientStockError struct {
	Lines []StockShortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, fmt.Sprintf("%s (requested: %d, available: %d)", l.SKU, l.Requested, l.Available))
	}
	return "insufficient stock for " + strings.Join(parts, ", ")
}

// Unwrap makes errors.Is(err, ErrInsufficientStock) hold.
func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// IsClientError reports whether err is a permanent, caller-caused failure.
// Anything else, such as a database outage, is worth retrying.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrInvalidInput, ErrEmptyCart, ErrInsufficientStock, ErrForbidden, ErrNotFound,
		ErrInvalidSignature, ErrUnhandledEventType, ErrAlreadySettled,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
