package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionConfig for the Redis-backed session cookie.
type SessionConfig struct {
	Secret            string
	RedisURL          string
	AllowCrossSiteDev bool
	IsProduction      bool
}

const (
	SessionCookieName  = "wardrobe.sid"
	SessionRedisPrefix = "session:"
	sessionMaxAge      = 24 * time.Hour

	sessionDataLocal = "session_data"
	sessionIDLocal   = "session_id"
)

// SessionUser is stored in the session under "user".
type SessionUser struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Session connects to Redis and returns the session middleware with its client.
func Session(cfg SessionConfig) (fiber.Handler, *redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	rdb := redis.NewClient(opt)
	return SessionStore(rdb), rdb, nil
}

// SessionStore loads session data from Redis before the handler and writes it back after, which
// also slides the expiry. Empty sessions are never written, so anonymous browsing of listings
// leaves nothing in Redis. Cookie value is "s:<id>" or "s:<id>.<sig>"; only the id is used.
func SessionStore(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := parseSessionCookie(c.Cookies(SessionCookieName))

		data := loadSession(c.UserContext(), rdb, sessionID)
		c.Locals(sessionDataLocal, data)
		c.Locals(userLocal, data["user"])
		c.Locals(sessionIDLocal, sessionID)

		if err := c.Next(); err != nil {
			return err
		}

		sid := GetSessionID(c)
		updated, _ := c.Locals(sessionDataLocal).(map[string]interface{})
		if sid == "" || len(updated) == 0 {
			return nil
		}
		b, err := json.Marshal(updated)
		if err != nil {
			log.Warn().Err(err).Msg("session: encode failed")
			return nil
		}
		if err := rdb.Set(c.UserContext(), SessionRedisPrefix+sid, b, sessionMaxAge).Err(); err != nil {
			log.Warn().Err(err).Str("trace_id", GetTraceID(c)).Msg("session: save failed")
		}
		return nil
	}
}

func parseSessionCookie(v string) string {
	if !strings.HasPrefix(v, "s:") {
		return v
	}
	return strings.SplitN(v[2:], ".", 2)[0]
}

// loadSession treats a missing, unreadable or corrupt session as empty; the request then
// proceeds anonymously and RequireAuth decides.
func loadSession(ctx context.Context, rdb *redis.Client, sessionID string) map[string]interface{} {
	data := make(map[string]interface{})
	if sessionID == "" {
		return data
	}
	b, err := rdb.Get(ctx, SessionRedisPrefix+sessionID).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("session: load failed")
		}
		return data
	}
	if err := json.Unmarshal(b, &data); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("session: discarding corrupt session")
		return make(map[string]interface{})
	}
	return data
}

func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(sessionIDLocal).(string)
	return sid
}

// SetSessionUser puts user into the session. Call RegenerateSessionID first.
func SetSessionUser(c *fiber.Ctx, user SessionUser) {
	data, _ := c.Locals(sessionDataLocal).(map[string]interface{})
	if data == nil {
		data = make(map[string]interface{})
	}
	data["user"] = map[string]interface{}{
		"user_id":   user.UserID,
		"email":     user.Email,
		"full_name": user.FullName,
	}
	c.Locals(sessionDataLocal, data)
	c.Locals(userLocal, data["user"])
}

// RegenerateSessionID issues a fresh id on sign-in so a pre-login cookie is never promoted.
func RegenerateSessionID(c *fiber.Ctx) string {
	newID := uuid.New().String()
	c.Locals(sessionIDLocal, newID)
	return newID
}

// DestroySession clears Locals; the caller removes the Redis key and the cookie.
func DestroySession(c *fiber.Ctx) {
	c.Locals(sessionDataLocal, make(map[string]interface{}))
	c.Locals(userLocal, nil)
}

func SessionCookieConfig(cfg SessionConfig) fiber.Cookie {
	sameSite := "Lax"
	if cfg.AllowCrossSiteDev {
		sameSite = "None"
	}
	return fiber.Cookie{
		Name:     SessionCookieName,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   cfg.IsProduction || cfg.AllowCrossSiteDev,
		SameSite: sameSite,
	}
}
