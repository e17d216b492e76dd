package middleware

import (
	"strings"

	"fulfillment/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserIDKey is the fiber Locals key holding the authenticated user id.
const UserIDKey = "user_id"

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(tokens *services.TokenService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		userID, err := tokens.ValidateToken(parts[1])
		if err != nil {
			log.Debug("JWT validation failed", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// UserID returns the user id stored by AuthRequired.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}
