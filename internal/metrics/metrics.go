// Package metrics exposes Prometheus metrics and a JSON health endpoint for
// the trade loop.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the trade loop.
type Metrics struct {
	IterationsTotal prometheus.Counter
	OrdersTotal     *prometheus.CounterVec // labels: side
	FillWaitDur     prometheus.Histogram

	// Last evaluated quantities
	Price         prometheus.Gauge
	MovingAverage prometheus.Gauge
	RSI           prometheus.Gauge
	Volatility    prometheus.Gauge

	// Position bookkeeping
	OpenPosition prometheus.Gauge // 0 or 1
	TotalBenefit prometheus.Gauge
	StopLossPct  prometheus.Gauge
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		IterationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_iterations_total",
			Help: "Total trade loop iterations evaluated",
		}),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_orders_total",
			Help: "Total orders placed (by side)",
		}, []string{"side"}),
		FillWaitDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradebot_fill_wait_duration_seconds",
			Help:    "Time spent waiting for order fulfillment",
			Buckets: []float64{0.1, 0.3, 1, 3, 10, 30, 60, 120},
		}),
		Price: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradebot_price",
			Help: "Last evaluated market price",
		}),
		MovingAverage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradebot_moving_average",
			Help: "Last evaluated moving average",
		}),
		RSI: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradebot_rsi",
			Help: "Last evaluated RSI",
		}),
		Volatility: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradebot_volatility",
			Help: "Last evaluated closing-price volatility",
		}),
		OpenPosition: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradebot_open_position",
			Help: "1 while a position is open, else 0",
		}),
		TotalBenefit: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradebot_total_benefit",
			Help: "Cumulative realized profit",
		}),
		StopLossPct: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradebot_stop_loss_pct",
			Help: "Current smoothed stop-loss percentage",
		}),
	}

	prometheus.MustRegister(
		m.IterationsTotal,
		m.OrdersTotal,
		m.FillWaitDur,
		m.Price,
		m.MovingAverage,
		m.RSI,
		m.Volatility,
		m.OpenPosition,
		m.TotalBenefit,
		m.StopLossPct,
	)

	return m
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	ExchangeOK     bool      `json:"exchange_ok"`
	LastIteration  time.Time `json:"last_iteration"`
	RedisConnected bool      `json:"redis_connected"`
	JournalOK      bool      `json:"journal_ok"`
	WSFeedOK       bool      `json:"ws_feed_ok"`

	// Liveness probe results
	RedisLatencyMs   float64   `json:"redis_latency_ms"`
	JournalLatencyMs float64   `json:"journal_latency_ms"`
	LastCheckAt      time.Time `json:"last_check_at"`
	StartedAt        time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetExchangeOK(v bool) {
	h.mu.Lock()
	h.ExchangeOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastIteration(t time.Time) {
	h.mu.Lock()
	h.LastIteration = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetJournalOK(v bool) {
	h.mu.Lock()
	h.JournalOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetWSFeedOK(v bool) {
	h.mu.Lock()
	h.WSFeedOK = v
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckJournal runs a trivial query and records latency + health.
func (h *HealthStatus) CheckJournal(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.JournalOK = err == nil
	h.JournalLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, db *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if db != nil {
					h.CheckJournal(probeCtx, db)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.ExchangeOK {
		overallStatus = "unhealthy"
		httpCode = http.StatusServiceUnavailable
	}

	iterationAge := ""
	if !h.LastIteration.IsZero() {
		iterationAge = time.Since(h.LastIteration).Round(time.Millisecond).String()
	}

	status := struct {
		Status           string  `json:"status"`
		Uptime           string  `json:"uptime"`
		ExchangeOK       bool    `json:"exchange_ok"`
		LastIteration    string  `json:"last_iteration"`
		IterationAge     string  `json:"iteration_age"`
		RedisConnected   bool    `json:"redis_connected"`
		RedisLatencyMs   float64 `json:"redis_latency_ms"`
		JournalOK        bool    `json:"journal_ok"`
		JournalLatencyMs float64 `json:"journal_latency_ms"`
		WSFeedOK         bool    `json:"ws_feed_ok"`
		LastCheckAt      string  `json:"last_check_at"`
	}{
		Status:           overallStatus,
		Uptime:           time.Since(h.StartedAt).Round(time.Second).String(),
		ExchangeOK:       h.ExchangeOK,
		LastIteration:    h.LastIteration.Format(time.RFC3339),
		IterationAge:     iterationAge,
		RedisConnected:   h.RedisConnected,
		RedisLatencyMs:   h.RedisLatencyMs,
		JournalOK:        h.JournalOK,
		JournalLatencyMs: h.JournalLatencyMs,
		WSFeedOK:         h.WSFeedOK,
		LastCheckAt:      h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
