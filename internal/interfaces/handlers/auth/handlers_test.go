package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authsvc "wardrobe-backend/internal/application/auth"
	"wardrobe-backend/internal/application/profile"
	"wardrobe-backend/internal/domain"
	"wardrobe-backend/internal/infrastructure/database/dbtest"
	"wardrobe-backend/internal/infrastructure/supabase"
	"wardrobe-backend/internal/interfaces/handlers/handlertest"
	"wardrobe-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const jwtSecret = "test-jwt-secret"

type fixture struct {
	app *fiber.App
	rdb *redis.Client
	db  *gorm.DB
}

func setup(t *testing.T) *fixture {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	db := dbtest.Open(t)

	h := &Handlers{
		Service: &authsvc.Service{JWTSecret: jwtSecret, Profiles: &profile.Service{DB: db}},
		Rdb:     rdb,
	}
	app := fiber.New()
	app.Use(middleware.SessionStore(rdb))
	app.Post("/auth/session", h.CreateSession)
	app.Get("/auth/me", h.Me)
	app.Delete("/auth/logout", h.Logout)
	app.Delete("/auth/sessions", h.LogoutAll)
	return &fixture{app: app, rdb: rdb, db: db}
}

func sessionCookie(t *testing.T, f *fixture, token string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"access_token": token})
	req := httptest.NewRequest("POST", "/auth/session", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c.Value
		}
	}
	t.Fatal("no session cookie set")
	return ""
}

func withCookie(t *testing.T, f *fixture, method, path, cookie string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Cookie", middleware.SessionCookieName+"="+cookie)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestCreateSession_SetsCookieAndProfile(t *testing.T) {
	f := setup(t)
	userID := uuid.New()
	token, err := supabase.SignToken(jwtSecret, userID, "ada@example.com", time.Hour)
	require.NoError(t, err)

	cookie := sessionCookie(t, f, token)
	require.True(t, strings.HasPrefix(cookie, "s:"))
	sid := strings.TrimPrefix(cookie, "s:")

	members, err := f.rdb.SMembers(context.Background(), authsvc.UserSessionsPrefix+userID.String()).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{sid}, members)

	stored, err := f.rdb.Get(context.Background(), middleware.SessionRedisPrefix+sid).Result()
	require.NoError(t, err)
	assert.Contains(t, stored, userID.String())

	var p domain.Profile
	require.NoError(t, f.db.First(&p, "id = ?", userID).Error)
	assert.Equal(t, "ada@example.com", p.Email)

	assert.Equal(t, fiber.StatusOK, withCookie(t, f, "GET", "/auth/me", cookie))
}

func TestCreateSession_BearerHeader(t *testing.T) {
	f := setup(t)
	token, err := supabase.SignToken(jwtSecret, uuid.New(), "grace@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCreateSession_Rejects(t *testing.T) {
	f := setup(t)

	code, out := handlertest.Do(t, f.app, "POST", "/auth/session", map[string]string{})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, authsvc.ErrTokenRequired.Error(), out.Message())

	expired, err := supabase.SignToken(jwtSecret, uuid.New(), "x@example.com", -time.Hour)
	require.NoError(t, err)
	code, out = handlertest.Do(t, f.app, "POST", "/auth/session", map[string]string{"access_token": expired})
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, authsvc.ErrInvalidToken.Error(), out.Message())

	forged, err := supabase.SignToken("other-secret", uuid.New(), "x@example.com", time.Hour)
	require.NoError(t, err)
	code, _ = handlertest.Do(t, f.app, "POST", "/auth/session", map[string]string{"access_token": forged})
	assert.Equal(t, fiber.StatusUnauthorized, code)
}

func TestMe_NoSession(t *testing.T) {
	f := setup(t)
	code, out := handlertest.Do(t, f.app, "GET", "/auth/me", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, "Not authenticated", out.Message())
}

func TestLogout_RemovesSession(t *testing.T) {
	f := setup(t)
	userID := uuid.New()
	token, err := supabase.SignToken(jwtSecret, userID, "ada@example.com", time.Hour)
	require.NoError(t, err)
	cookie := sessionCookie(t, f, token)
	sid := strings.TrimPrefix(cookie, "s:")

	assert.Equal(t, fiber.StatusOK, withCookie(t, f, "DELETE", "/auth/logout", cookie))

	n, err := f.rdb.Exists(context.Background(), middleware.SessionRedisPrefix+sid).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
	members, err := f.rdb.SMembers(context.Background(), authsvc.UserSessionsPrefix+userID.String()).Result()
	require.NoError(t, err)
	assert.Empty(t, members)

	assert.Equal(t, fiber.StatusUnauthorized, withCookie(t, f, "GET", "/auth/me", cookie))
}

func TestLogoutAll_EndsEverySession(t *testing.T) {
	f := setup(t)
	userID := uuid.New()
	token, err := supabase.SignToken(jwtSecret, userID, "ada@example.com", time.Hour)
	require.NoError(t, err)
	phone := sessionCookie(t, f, token)
	laptop := sessionCookie(t, f, token)
	require.NotEqual(t, phone, laptop)

	assert.Equal(t, fiber.StatusOK, withCookie(t, f, "DELETE", "/auth/sessions", phone))

	assert.Equal(t, fiber.StatusUnauthorized, withCookie(t, f, "GET", "/auth/me", phone))
	assert.Equal(t, fiber.StatusUnauthorized, withCookie(t, f, "GET", "/auth/me", laptop))
	n, err := f.rdb.Exists(context.Background(), authsvc.UserSessionsPrefix+userID.String()).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}
