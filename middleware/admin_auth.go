// middleware/admin_auth.go
package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// DefaultAdminToken is the development fallback; never ship with it.
const DefaultAdminToken = "change-me-in-production"

// AdminAuthMiddleware validates the shared admin secret on content-mutation
// routes. Accepts "Bearer <token>" or the raw token value.
func AdminAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("ADMIN_TOKEN")
	if expectedToken == "" {
		log.Println("⚠️  ADMIN_TOKEN not set — using insecure default")
		expectedToken = DefaultAdminToken
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		// Parse "Bearer <token>"
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			// no "Bearer " prefix — try raw value
			token = authHeader
		}

		if token != expectedToken {
			log.Printf("❌ [ADMIN_AUTH] Invalid token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid admin token",
			})
		}

		return c.Next()
	}
}
