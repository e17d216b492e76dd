package handlers

import (
	"errors"

	"fulfillment/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidSignature):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInsufficientStock), errors.Is(err, services.ErrAlreadySettled):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrEmptyCart), errors.Is(err, services.ErrUnhandledEventType):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrGatewayUnavailable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err as a JSON error response. Server errors are logged
// and their detail is not exposed.
func writeError(c *fiber.Ctx, log *zap.Logger, message string, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.Error(message, zap.String("path", c.Path()), zap.Error(err))
		return c.Status(status).JSON(fiber.Map{"message": message})
	}

	body := fiber.Map{
		"message": message,
		"error":   err.Error(),
	}
	var stockErr *services.InsufficientStockError
	if errors.As(err, &stockErr) {
		body["shortfalls"] = stockErr.Lines
	}
	return c.Status(status).JSON(body)
}
