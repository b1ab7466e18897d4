package health

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	healthsvc "wardrobe-backend/internal/application/health"
	"wardrobe-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHealthHandlers(t *testing.T) (*fiber.App, *Handlers) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	h := &Handlers{
		Rdb:            rdb,
		Collector:      &healthsvc.Collector{Rdb: rdb},
		HealthAdminKey: "test-admin-key",
	}
	app := fiber.New()
	app.Get("/health", h.Dashboard)
	app.Get("/health/json", h.JSON)
	app.Get("/health/errors", h.Errors)
	app.Get("/health/reset", h.Reset)
	return app, h
}

func decode(t *testing.T, body io.Reader, v interface{}) {
	t.Helper()
	b, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, v))
}

func TestReset_Unauthorized(t *testing.T) {
	app, _ := setupHealthHandlers(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/reset", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	var out map[string]interface{}
	decode(t, resp.Body, &out)
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "Unauthorized", out["error"].(map[string]interface{})["message"])

	resp, err = app.Test(httptest.NewRequest("GET", "/health/reset?key=wrong", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestReset_Success(t *testing.T) {
	app, h := setupHealthHandlers(t)
	ctx := context.Background()
	require.NoError(t, h.Rdb.Set(ctx, middleware.KeyReqTotal, "5", 0).Err())

	resp, err := app.Test(httptest.NewRequest("GET", "/health/reset?key=test-admin-key", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out map[string]interface{}
	decode(t, resp.Body, &out)
	assert.Equal(t, "Stats reset successfully", out["message"])

	_, err = h.Rdb.Get(ctx, middleware.KeyReqTotal).Result()
	assert.ErrorIs(t, err, redis.Nil)
	_, err = h.Rdb.Get(ctx, middleware.KeyStartTime).Result()
	assert.NoError(t, err)
}

func TestJSON_ReturnsStructure(t *testing.T) {
	app, _ := setupHealthHandlers(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/health/json", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	decode(t, resp.Body, &out)
	assert.Equal(t, "wardrobe-api", out["service"])
	assert.Equal(t, "issue", out["status"])
	deps := out["dependencies"].(map[string]interface{})
	assert.Equal(t, "connected", deps["redis"].(map[string]interface{})["status"])
	assert.Equal(t, "disconnected", deps["database"].(map[string]interface{})["status"])
}

func TestErrors_ReturnsLoggedEntries(t *testing.T) {
	app, h := setupHealthHandlers(t)
	ctx := context.Background()
	require.NoError(t, h.Rdb.LPush(ctx, middleware.KeyErrorLog, `{"path":"/api/v1/checkout/complete","status":500}`, "not json").Err())

	resp, err := app.Test(httptest.NewRequest("GET", "/health/errors", nil))
	require.NoError(t, err)
	var out []map[string]interface{}
	decode(t, resp.Body, &out)
	require.Len(t, out, 1)
	assert.Equal(t, "/api/v1/checkout/complete", out[0]["path"])
}

func TestDashboard_HTML(t *testing.T) {
	app, _ := setupHealthHandlers(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "<!DOCTYPE html>")
}
