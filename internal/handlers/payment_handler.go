package handlers

import (
	"time"

	"fulfillment/internal/middleware"
	"fulfillment/internal/models"
	"fulfillment/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SignatureHeader carries the gateway's webhook signature.
const SignatureHeader = "Stripe-Signature"

// PaymentHandler handles HTTP requests for payments and gateway webhooks.
type PaymentHandler struct {
	service  *services.PaymentService
	validate *validator.Validate
	log      *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service:  service,
		validate: validator.New(),
		log:      log,
	}
}

// RegisterRoutes registers the payment routes. The webhooks are public;
// they are authenticated by their signature. /webhook is the endpoint
// registered with the gateway, /:id/webhook serves routers that put the
// payment id in the path.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	paymentRoutes := router.Group("/payments")
	paymentRoutes.Post("/", auth, h.HandleCreatePayment)
	paymentRoutes.Post("/webhook", h.HandleGatewayWebhook)
	paymentRoutes.Post("/:id/webhook", h.HandleWebhook)
}

type createPaymentRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

type createPaymentResponse struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	IntentID  string `json:"intent_id"`
}

// HandleCreatePayment starts a payment for one of the caller's orders.
func (h *PaymentHandler) HandleCreatePayment(c *fiber.Ctx) error {
	var req createPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	payment, err := h.service.CreatePayment(c.UserContext(), req.OrderID, middleware.UserID(c))
	if err != nil {
		return writeError(c, h.log, "Could not create payment", err)
	}
	return c.Status(fiber.StatusCreated).JSON(createPaymentResponse{
		PaymentID: payment.ID,
		OrderID:   payment.OrderID,
		Status:    string(payment.Status),
		Amount:    payment.Amount.StringFixed(2),
		Currency:  payment.Currency,
		IntentID:  payment.IntentID,
	})
}

// HandleWebhook applies a signed gateway event to the payment in the path.
func (h *PaymentHandler) HandleWebhook(c *fiber.Ctx) error {
	paymentID := c.Params("id")
	payment, err := h.service.ProcessPaymentWebhook(c.UserContext(), paymentID, rawBody(c), c.Get(SignatureHeader), time.Now())
	return h.webhookResponse(c, payment, err)
}

// HandleGatewayWebhook applies a signed gateway event to the payment named
// in its metadata.
func (h *PaymentHandler) HandleGatewayWebhook(c *fiber.Ctx) error {
	payment, err := h.service.ProcessGatewayWebhook(c.UserContext(), rawBody(c), c.Get(SignatureHeader), time.Now())
	return h.webhookResponse(c, payment, err)
}

func (h *PaymentHandler) webhookResponse(c *fiber.Ctx, payment *models.Payment, err error) error {
	if err != nil {
		return writeError(c, h.log, "Could not process webhook", err)
	}
	return c.JSON(fiber.Map{
		"payment_id": payment.ID,
		"status":     payment.Status,
	})
}

// rawBody copies the request body; fasthttp reuses the buffer once the
// handler returns.
func rawBody(c *fiber.Ctx) []byte {
	return append([]byte(nil), c.Body()...)
}
