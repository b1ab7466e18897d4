package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"wardrobe-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping() error { return p.err }

func TestCollect_NothingConfigured(t *testing.T) {
	r := (&Collector{}).Collect(context.Background())
	assert.Equal(t, "issue", r.Status)
	assert.Equal(t, "disconnected", r.Dependencies["database"].Status)
	assert.Equal(t, "disconnected", r.Dependencies["redis"].Status)
	assert.Equal(t, 0, r.Traffic.TotalRequests)
}

func TestCollect_TrafficFromRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	c := &Collector{Rdb: rdb, DB: pinger{}}
	r := c.Collect(ctx)
	assert.Equal(t, "ok", r.Status)
	assert.Equal(t, "100", r.Traffic.SuccessRate)
	assert.True(t, mr.Exists(middleware.KeyStartTime))

	require.NoError(t, rdb.Set(ctx, middleware.KeyReqTotal, "10", 0).Err())
	require.NoError(t, rdb.Set(ctx, middleware.KeyReqErrors, "2", 0).Err())
	require.NoError(t, rdb.Set(ctx, middleware.KeyResTime, "150.5", 0).Err())
	require.NoError(t, rdb.Set(ctx, middleware.KeyResCount, "10", 0).Err())
	require.NoError(t, rdb.Set(ctx, middleware.KeyLastReq, `{"method":"GET","path":"/api/v1/cart"}`, 0).Err())

	r = c.Collect(ctx)
	assert.Equal(t, 10, r.Traffic.TotalRequests)
	assert.Equal(t, 8, r.Traffic.SuccessCount)
	assert.Equal(t, "80.0", r.Traffic.SuccessRate)
	assert.Equal(t, "15.05", r.Traffic.AvgResponseTime)
	assert.Equal(t, "/api/v1/cart", r.Traffic.LastRequest["path"])
}

func TestCollect_DatabaseErrorAndProbes(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer up.Close()

	c := &Collector{
		DB:     pinger{err: errors.New("refused")},
		Probes: []Probe{{Name: "frontend", URL: up.URL}, {Name: "stripe", URL: "http://127.0.0.1:1"}},
	}
	r := c.Collect(context.Background())
	assert.Equal(t, "error", r.Dependencies["database"].Status)
	assert.Equal(t, "reachable", r.Dependencies["frontend"].Status)
	assert.NotNil(t, r.Dependencies["frontend"].PingMs)
	assert.Equal(t, "unreachable", r.Dependencies["stripe"].Status)
	assert.Equal(t, "issue", r.Status)
}

func TestRenderDashboard(t *testing.T) {
	html, err := RenderDashboard((&Collector{DB: pinger{}}).Collect(context.Background()))
	require.NoError(t, err)
	assert.Contains(t, html, "System issues detected")
	assert.Contains(t, html, "database")
	assert.Contains(t, html, "/health/json")
}
