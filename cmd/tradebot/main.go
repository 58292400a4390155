package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"spotbotv1/config"
	"spotbotv1/internal/api"
	"spotbotv1/internal/exchange"
	"spotbotv1/internal/execution"
	"spotbotv1/internal/journal"
	"spotbotv1/internal/logger"
	"spotbotv1/internal/marketdata/ws"
	"spotbotv1/internal/metrics"
	"spotbotv1/internal/model"
	"spotbotv1/internal/notification"
	redisstore "spotbotv1/internal/store/redis"
	"spotbotv1/internal/trader"
)

const statusPriceWindow = 60

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[tradebot] starting...")

	// ---- Load config from env ----
	cfg := config.Load()
	slg := logger.Init("tradebot", slog.LevelInfo)
	slg.Info("configuration loaded",
		slog.String("symbol", cfg.Symbol),
		slog.String("interval", cfg.Interval),
		slog.Int("period", cfg.Period),
		slog.Bool("test_mode", cfg.TestMode))
	if !cfg.TestMode {
		slg.Warn("TEST_MODE disabled: orders will be submitted for real")
	}

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Trade journal (SQLite, off hot path) ----
	var jnl *journal.Journal
	if cfg.JournalPath != "" {
		os.MkdirAll(filepath.Dir(cfg.JournalPath), 0o755)
		j, err := journal.New(cfg.JournalPath)
		if err != nil {
			log.Fatalf("[tradebot] journal init failed: %v", err)
		}
		jnl = j
		defer jnl.Close()
		health.SetJournalOK(true)
	}

	// ---- Redis event publisher ----
	var events model.EventPublisher
	var redisPub *redisstore.Publisher
	if cfg.RedisAddr != "" {
		pub, err := redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("[tradebot] WARNING: redis init failed: %v (continuing without redis)", err)
			health.SetRedisConnected(false)
		} else {
			redisPub = pub
			events = pub
			health.SetRedisConnected(true)
		}
	}

	// ---- Periodic liveness checks ----
	if redisPub != nil || jnl != nil {
		var redisClient *goredis.Client
		if redisPub != nil {
			redisClient = redisPub.Client()
		}
		var journalDB *sql.DB
		if jnl != nil {
			journalDB = jnl.DB()
		}
		health.StartLivenessChecker(ctx, redisClient, journalDB, 15*time.Second)
	}

	// ---- Notifications ----
	notifier := buildNotifier(cfg)

	// ---- Exchange client and price source ----
	rest := exchange.New(cfg.BaseURL, cfg.APIKey, cfg.APISecret)
	health.SetExchangeOK(true)

	var market model.MarketData = rest
	if cfg.WSFeed {
		feed := ws.New(cfg.WSBaseURL, cfg.Symbol)
		feed.OnState = health.SetWSFeedOK
		feed.Start(ctx)
		// Fall back to REST when the last tick is older than the poll interval.
		market = ws.NewSource(feed, rest, cfg.PollInterval)
	}

	// ---- Executor and trade loop ----
	tracker := trader.NewTracker(cfg.Symbol, cfg.TestMode, statusPriceWindow)

	// A nil *journal.Journal must not leak into the interface field.
	var recorder model.TradeRecorder
	if jnl != nil {
		recorder = jnl
	}
	exec := execution.New(cfg, rest, slg, recorder, events, notifier)
	exec.OnOrderPlaced = func(side model.Side) {
		prom.OrdersTotal.WithLabelValues(string(side)).Inc()
	}
	exec.OnFillWait = func(d time.Duration) {
		prom.FillWaitDur.Observe(d.Seconds())
	}

	loop := trader.New(cfg, market, exec, slg, events, tracker)
	loop.OnDecision = func(snap model.DecisionSnapshot) {
		prom.IterationsTotal.Inc()
		prom.Price.Set(snap.Price)
		prom.MovingAverage.Set(snap.MovingAverage)
		prom.RSI.Set(snap.RSI)
		prom.Volatility.Set(snap.Volatility)
		st := loop.State()
		if st.OpenPosition {
			prom.OpenPosition.Set(1)
		} else {
			prom.OpenPosition.Set(0)
		}
		prom.TotalBenefit.Set(st.TotalBenefit)
		prom.StopLossPct.Set(st.StopLossPct)
		health.SetLastIteration(snap.TS)
	}

	// ---- Status & control API ----
	apiSrv := api.New(cfg.APIAddr, tracker, jnl, cancel, cfg.AdminTOTPKey)
	apiSrv.Start()

	// ---- Run until done, signal, or fatal error ----
	runErr := make(chan error, 1)
	go func() { runErr <- loop.Run(ctx) }()

	select {
	case sig := <-sigCh:
		log.Printf("[tradebot] received %v, shutting down", sig)
		cancel()
		<-runErr
	case err := <-runErr:
		switch {
		case err == nil:
			slg.Info("trading finished", slog.Float64("total_benefit", loop.State().TotalBenefit))
			notify(ctx, notifier, notification.AlertInfo, "trading finished",
				"benefit limit reached for "+cfg.Symbol)
		case errors.Is(err, context.Canceled):
			log.Println("[tradebot] loop stopped by halt request")
		default:
			slg.Error("trade loop failed", slog.String("error", err.Error()))
			notify(ctx, notifier, notification.AlertCritical, "trade loop failed", err.Error())
		}
	}

	// ---- Graceful shutdown ----
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	apiSrv.Stop(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)
	if redisPub != nil {
		redisPub.Close()
	}
	log.Println("[tradebot] shutdown complete")
}

func buildNotifier(cfg *config.Config) notification.Notifier {
	backends := []notification.Notifier{notification.NewLogNotifier()}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		backends = append(backends, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
		log.Println("[tradebot] telegram notifications enabled")
	}
	if cfg.WebhookURL != "" {
		backends = append(backends, notification.NewWebhookNotifier(cfg.WebhookURL))
		log.Println("[tradebot] webhook notifications enabled")
	}
	return notification.NewMulti(backends...)
}

func notify(ctx context.Context, n notification.Notifier, level notification.AlertLevel, title, msg string) {
	nctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	n.Send(nctx, notification.Alert{Level: level, Title: title, Message: msg})
}
