package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/rosenblum-buero/backoffice_be/internal/utils"
)

// BearerAuth validates the Authorization header access token and attaches
// userId/role locals for the handlers downstream.
func BearerAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			return fiber.ErrUnauthorized
		}

		claims, err := utils.ParseToken(secret, strings.TrimPrefix(auth, "Bearer "), utils.TokenAccess)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		uid := strings.TrimSpace(claims.UserID)
		if uid == "" {
			return fiber.ErrUnauthorized
		}

		c.Locals("userId", uid)
		c.Locals("role", strings.ToLower(strings.TrimSpace(claims.Role)))
		return c.Next()
	}
}
