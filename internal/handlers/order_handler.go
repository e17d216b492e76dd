package handlers

import (
	"fmt"

	"fulfillment/internal/middleware"
	"fulfillment/internal/models"
	"fulfillment/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
	log      *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
		log:      log,
	}
}

// RegisterRoutes registers the order routes behind auth.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	orderRoutes := router.Group("/orders", auth)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", h.HandleUpdateOrderStatus)
}

type createOrderRequest struct {
	ShippingAddress string `json:"shipping_address" validate:"required"`
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

// HandleCreateOrder turns the caller's cart into an order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	order, err := h.service.CreateOrderFromCart(c.UserContext(), middleware.UserID(c), req.ShippingAddress)
	if err != nil {
		return writeError(c, h.log, "Could not create order", err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetOrderByID retrieves one of the caller's orders.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrder(c.UserContext(), middleware.UserID(c), orderID)
	if err != nil {
		return writeError(c, h.log, fmt.Sprintf("Could not retrieve order %s", orderID), err)
	}
	return c.JSON(order)
}

// HandleUpdateOrderStatus cancels or rejects one of the caller's pending orders.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for status update",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	order, err := h.service.UpdateOrderStatus(c.UserContext(), middleware.UserID(c), orderID, req.Status)
	if err != nil {
		return writeError(c, h.log, "Could not update order status", err)
	}
	return c.JSON(order)
}

func validationError(c *fiber.Ctx, err error) error {
	errorMessages := make(map[string]string)
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}
