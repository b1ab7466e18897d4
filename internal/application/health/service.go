package health

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"time"

	"wardrobe-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// DBPinger is optional. If nil, the database is reported as disconnected.
type DBPinger interface {
	Ping() error
}

// Probe is an external HTTP dependency checked on every collect.
type Probe struct {
	Name string
	URL  string
}

type Collector struct {
	Rdb     *redis.Client
	DB      DBPinger
	Probes  []Probe
	Timeout time.Duration
}

type Report struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64  `json:"uptimeSeconds"`
	HeapMB        int    `json:"heapMb"`
	AllocMB       int    `json:"allocMb"`
	Goroutines    int    `json:"goroutines"`
	Platform      string `json:"platform"`
	GoVersion     string `json:"goVersion"`
}

type TrafficInfo struct {
	TotalRequests   int                    `json:"totalRequests"`
	SuccessCount    int                    `json:"successCount"`
	FailedCount     int                    `json:"failedCount"`
	SuccessRate     string                 `json:"successRate"`
	AvgResponseTime string                 `json:"avgResponseTime"`
	LastRequest     map[string]interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

func (d DepStatus) OK() bool {
	return d.Status == "connected" || d.Status == "reachable"
}

// Collect gathers traffic counters from Redis and pings the database, Redis and every probe.
// Status is "ok" only when both the database and Redis answer.
func (c *Collector) Collect(ctx context.Context) Report {
	report := Report{Dependencies: map[string]DepStatus{}}
	var mu sync.Mutex
	set := func(name string, d DepStatus) {
		mu.Lock()
		report.Dependencies[name] = d
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for _, p := range c.Probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()
			set(p.Name, c.httpPing(ctx, p.URL))
		}(p)
	}

	db := DepStatus{Status: "disconnected"}
	if c.DB != nil {
		start := time.Now()
		if err := c.DB.Ping(); err == nil {
			db = DepStatus{Status: "connected", PingMs: since(start)}
		} else {
			db.Status = "error"
		}
	}
	set("database", db)

	startMs := time.Now().UnixMilli()
	rd := DepStatus{Status: "disconnected"}
	report.Traffic = TrafficInfo{SuccessRate: "100", AvgResponseTime: "0"}
	if c.Rdb != nil {
		start := time.Now()
		if err := c.Rdb.Ping(ctx).Err(); err == nil {
			rd = DepStatus{Status: "connected", PingMs: since(start)}
			startMs = c.traffic(ctx, &report.Traffic, startMs)
		} else {
			rd.Status = "error"
		}
	}
	set("redis", rd)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	report.Runtime = RuntimeInfo{
		UptimeSeconds: max(0, (time.Now().UnixMilli()-startMs)/1000),
		HeapMB:        int(m.HeapInuse >> 20),
		AllocMB:       int(m.Alloc >> 20),
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + "/" + runtime.GOARCH,
		GoVersion:     runtime.Version(),
	}

	wg.Wait()
	report.Status = "issue"
	if db.Status == "connected" && rd.Status == "connected" {
		report.Status = "ok"
	}
	return report
}

func (c *Collector) traffic(ctx context.Context, t *TrafficInfo, startMs int64) int64 {
	vals, _ := c.Rdb.MGet(ctx, middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime,
		middleware.KeyResCount, middleware.KeyStartTime, middleware.KeyLastReq).Result()
	str := func(i int) string {
		if i < len(vals) {
			if s, ok := vals[i].(string); ok {
				return s
			}
		}
		return ""
	}

	if s := str(4); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			startMs = v
		}
	} else {
		c.Rdb.Set(ctx, middleware.KeyStartTime, startMs, 0)
	}

	t.TotalRequests, _ = strconv.Atoi(str(0))
	t.FailedCount, _ = strconv.Atoi(str(1))
	t.SuccessCount = t.TotalRequests - t.FailedCount
	if t.TotalRequests > 0 {
		t.SuccessRate = strconv.FormatFloat(float64(t.SuccessCount)/float64(t.TotalRequests)*100, 'f', 1, 64)
	}
	sum, _ := strconv.ParseFloat(str(2), 64)
	if n, _ := strconv.Atoi(str(3)); n > 0 {
		t.AvgResponseTime = strconv.FormatFloat(sum/float64(n), 'f', 2, 64)
	}
	if s := str(5); s != "" {
		_ = json.Unmarshal([]byte(s), &t.LastRequest)
	}
	return startMs
}

func (c *Collector) httpPing(ctx context.Context, url string) DepStatus {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return DepStatus{Status: "unreachable"}
	}
	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return DepStatus{Status: "unreachable"}
	}
	resp.Body.Close()
	return DepStatus{Status: "reachable", PingMs: since(start)}
}

func since(t time.Time) *int64 {
	ms := time.Since(t).Milliseconds()
	return &ms
}
