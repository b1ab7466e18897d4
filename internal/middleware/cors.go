package middleware

import (
	"strings"

	"wardrobe-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CORSConfig allows the storefront origins (by suffix) and, for previews, any origin that
// presents the dev password.
type CORSConfig struct {
	AllowedSuffix string
	DevPassword   string
}

// CORS answers preflights itself and rejects other origins with 403. Credentials are allowed
// because the session travels as a cookie.
func CORS(cfg CORSConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get("Origin")
		if origin == "" {
			return c.Next()
		}
		c.Vary("Origin")

		allowed := (c.Method() == fiber.MethodOptions && isLocalOrigin(origin)) ||
			(cfg.AllowedSuffix != "" && strings.HasSuffix(strings.ToLower(origin), strings.ToLower(cfg.AllowedSuffix))) ||
			(cfg.DevPassword != "" && c.Get("dev-password") == cfg.DevPassword)
		if !allowed {
			return response.Error(c, "Not allowed by CORS", fiber.StatusForbidden, nil)
		}

		setCORSHeaders(c, origin)
		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}

// Local dev servers are only trusted for preflights; real requests still need the suffix or password.
func isLocalOrigin(origin string) bool {
	return strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")
}

func setCORSHeaders(c *fiber.Ctx, origin string) {
	c.Set("Access-Control-Allow-Origin", origin)
	c.Set("Access-Control-Allow-Credentials", "true")
	c.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
	c.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Stripe-Signature, X-Trace-Id, dev-password")
	c.Set("Access-Control-Expose-Headers", "X-Trace-Id")
	c.Set("Access-Control-Max-Age", "600")
}
