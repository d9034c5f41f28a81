package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jarvistext/jarvis-backend/internal/auth"
)

// AdminAuth guards the admin surface with a bearer token minted by the
// admintoken tool.
func AdminAuth(jwtService *auth.JWTService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing bearer token",
			})
		}

		claims, err := jwtService.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		c.Locals("admin_subject", claims.Subject)
		return c.Next()
	}
}
