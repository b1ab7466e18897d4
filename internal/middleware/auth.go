package middleware

import (
	"strings"

	"wardrobe-backend/internal/infrastructure/supabase"
	"wardrobe-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const userLocal = "user"

// BearerAuth verifies a Supabase access token from the Authorization header and, when valid,
// puts its user into Locals the same way the session does. Requests without a bearer token pass through.
func BearerAuth(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Next()
		}
		claims, err := supabase.VerifyToken(jwtSecret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("bearer token rejected")
			return response.Unauthorized(c, "Invalid access token")
		}
		fullName, _ := claims.UserMetadata["full_name"].(string)
		c.Locals(userLocal, map[string]interface{}{
			"user_id":   claims.Subject,
			"email":     claims.Email,
			"full_name": fullName,
		})
		return c.Next()
	}
}

// RequireAuth rejects requests without a session or bearer user with 401.
// Clients treat 401 as "go to login" and never retry it.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUserID(c); !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// CurrentUserID returns the authenticated user's id.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	m, ok := GetUser(c).(map[string]interface{})
	if !ok {
		return uuid.Nil, false
	}
	s, _ := m["user_id"].(string)
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
