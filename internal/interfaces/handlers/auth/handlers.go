package auth

import (
	"context"
	"errors"

	authsvc "wardrobe-backend/internal/application/auth"
	"wardrobe-backend/internal/middleware"
	"wardrobe-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Service *authsvc.Service
	Rdb     *redis.Client
	Config  middleware.SessionConfig
}

type sessionRequest struct {
	AccessToken string `json:"access_token"`
}

// CreateSession POST /api/v1/auth/session: exchange a Supabase access token (body or Bearer header)
// for a server session, SAdd user_sessions:user_id, set cookie.
func (h *Handlers) CreateSession(c *fiber.Ctx) error {
	var req sessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadBody(c)
		}
	}
	token := req.AccessToken
	if token == "" {
		token = c.Get(fiber.HeaderAuthorization)
	}

	user, err := h.Service.Exchange(c.UserContext(), token)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrTokenRequired):
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case errors.Is(err, authsvc.ErrInvalidToken):
			return response.Unauthorized(c, err.Error())
		default:
			log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("auth/session: exchange failed")
			return response.Internal(c)
		}
	}

	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:   user.UserID,
		Email:    user.Email,
		FullName: user.FullName,
	})

	if err := h.Rdb.SAdd(context.Background(), authsvc.UserSessionsPrefix+user.UserID, sessionID).Err(); err != nil {
		log.Error().Err(err).Str("user_id", user.UserID).Msg("auth/session: session not tracked")
		return response.Internal(c)
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)

	return response.Success(c, "Signed in", fiber.Map{"user": user}, nil)
}

// Me GET /api/v1/auth/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	sessionUser := middleware.GetUser(c)
	user, err := authsvc.VerifyUser(sessionUser)
	if err != nil {
		log.Debug().Str("path", "/auth/me").Bool("session_id_present", middleware.GetSessionID(c) != "").
			Bool("session_user_nil", sessionUser == nil).Msg("auth/me: not authenticated")
		return response.Unauthorized(c, authsvc.ErrNotAuthenticated.Error())
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

// Logout DELETE /api/v1/auth/logout: SRem user_sessions:user_id, Del session key, clear cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	ctx := context.Background()

	if sessionID != "" {
		if user, err := authsvc.VerifyUser(middleware.GetUser(c)); err == nil {
			_ = h.Rdb.SRem(ctx, authsvc.UserSessionsPrefix+user.UserID, sessionID).Err()
		}
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out successfully", nil, nil)
}

// LogoutAll DELETE /api/v1/auth/sessions: sign the user out on every device, this one included.
func (h *Handlers) LogoutAll(c *fiber.Ctx) error {
	user, err := authsvc.VerifyUser(middleware.GetUser(c))
	if err != nil {
		return response.Unauthorized(c, authsvc.ErrNotAuthenticated.Error())
	}
	n, err := authsvc.DestroyUserSessions(c.UserContext(), h.Rdb, middleware.SessionRedisPrefix, user.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.UserID).Msg("auth/sessions: not destroyed")
		return response.Internal(c)
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Signed out everywhere", fiber.Map{"sessions": n}, nil)
}
