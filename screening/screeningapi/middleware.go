package screeningapi

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/hirelens/hirelens/screening"
)

// APIKeyMiddleware guards routes with a static X-API-Key header. An empty
// configured key disables the check (local development).
func APIKeyMiddleware(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey == "" {
			return c.Next()
		}

		provided := c.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			return screening.ErrInvalidAuthorization()
		}

		return c.Next()
	}
}
