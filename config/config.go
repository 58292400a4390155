package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Exchange credentials
	APIKey    string
	APISecret string
	BaseURL   string // REST base, e.g. "https://api.binance.com"

	// Trading parameters (immutable per run)
	Symbol               string
	Quantity             float64
	TargetProfit         float64
	FeePercentage        float64 // e.g. 0.001
	Discount             float64 // commission discount in [0,1]
	MaxRSI               float64 // entry threshold
	Period               int     // lookback size and RSI window
	Interval             string  // candle granularity, e.g. "1m"
	LimitBenefit         float64 // cumulative-profit exit threshold
	VolatilityMultiplier float64
	FloorStopLossPct     float64
	CeilingStopLossPct   float64
	SeedStopLossPct      float64
	TestMode             bool

	// Loop timing
	PollInterval  time.Duration // pause between loop iterations
	OrderPollWait time.Duration // delay between open-order polls
	OrderTimeout  time.Duration // upper bound on the fulfillment wait

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	JournalPath   string
	MetricsAddr   string
	APIAddr       string
	AdminTOTPKey  string // guards the control endpoint when set
	WSFeed        bool   // use the websocket ticker as price source
	WSBaseURL     string // websocket stream base, e.g. "wss://stream.binance.com:9443"

	// Notifications
	TelegramBotToken string
	TelegramChatID   string
	WebhookURL       string
}

// Load reads configuration from environment variables with sensible defaults
// and aborts on invalid trading parameters.
func Load() *Config {
	cfg := &Config{
		APIKey:    mustEnv("EXCHANGE_API_KEY"),
		APISecret: mustEnv("EXCHANGE_API_SECRET"),
		BaseURL:   getEnv("EXCHANGE_BASE_URL", "https://api.binance.com"),

		Symbol:               getEnv("SYMBOL", "BTCUSDT"),
		Quantity:             getFloat("QUANTITY", 0.001),
		TargetProfit:         getFloat("TARGET_PROFIT", 1.0),
		FeePercentage:        getFloat("FEE_PERCENTAGE", 0.001),
		Discount:             getFloat("FEE_DISCOUNT", 0),
		MaxRSI:               getFloat("MAX_RSI", 70),
		Period:               getInt("PERIOD", 14),
		Interval:             getEnv("INTERVAL", "1m"),
		LimitBenefit:         getFloat("LIMIT_BENEFIT", 50),
		VolatilityMultiplier: getFloat("VOLATILITY_MULTIPLIER", 2.0),
		FloorStopLossPct:     getFloat("FLOOR_STOP_LOSS_PCT", 0.02),
		CeilingStopLossPct:   getFloat("CEILING_STOP_LOSS_PCT", 0.15),
		SeedStopLossPct:      getFloat("SEED_STOP_LOSS_PCT", 0.05),
		TestMode:             getBool("TEST_MODE", true),

		PollInterval:  getDuration("POLL_INTERVAL", 5*time.Second),
		OrderPollWait: getDuration("ORDER_POLL_WAIT", 300*time.Millisecond),
		OrderTimeout:  getDuration("ORDER_TIMEOUT", 2*time.Minute),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		JournalPath:   getEnv("JOURNAL_PATH", "data/trades.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		APIAddr:       getEnv("API_ADDR", ":8080"),
		AdminTOTPKey:  getEnv("ADMIN_TOTP_SECRET", ""),
		WSFeed:        getBool("WS_PRICE_FEED", false),
		WSBaseURL:     getEnv("WS_BASE_URL", "wss://stream.binance.com:9443"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[config] %v", err)
	}
	return cfg
}

// Validate checks the trading-parameter invariants.
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("SYMBOL must not be empty")
	}
	if c.Quantity <= 0 {
		return fmt.Errorf("QUANTITY must be > 0, got %v", c.Quantity)
	}
	if c.TargetProfit < 0 {
		return fmt.Errorf("TARGET_PROFIT must be >= 0, got %v", c.TargetProfit)
	}
	if c.FeePercentage < 0 || c.FeePercentage >= 1 {
		return fmt.Errorf("FEE_PERCENTAGE must be in [0,1), got %v", c.FeePercentage)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("FEE_DISCOUNT must be in [0,1], got %v", c.Discount)
	}
	if c.Period < 2 {
		return fmt.Errorf("PERIOD must be >= 2, got %d", c.Period)
	}
	if c.VolatilityMultiplier <= 0 {
		return fmt.Errorf("VOLATILITY_MULTIPLIER must be > 0, got %v", c.VolatilityMultiplier)
	}
	if c.FloorStopLossPct > c.CeilingStopLossPct {
		return fmt.Errorf("FLOOR_STOP_LOSS_PCT %v exceeds CEILING_STOP_LOSS_PCT %v",
			c.FloorStopLossPct, c.CeilingStopLossPct)
	}
	if c.SeedStopLossPct < c.FloorStopLossPct || c.SeedStopLossPct > c.CeilingStopLossPct {
		return fmt.Errorf("SEED_STOP_LOSS_PCT %v outside [%v, %v]",
			c.SeedStopLossPct, c.FloorStopLossPct, c.CeilingStopLossPct)
	}
	if c.OrderPollWait <= 0 {
		return fmt.Errorf("ORDER_POLL_WAIT must be positive, got %v", c.OrderPollWait)
	}
	return nil
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("[config] %s: invalid float %q", key, v)
	}
	return f
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("[config] %s: invalid int %q", key, v)
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Fatalf("[config] %s: invalid bool %q", key, v)
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("[config] %s: invalid duration %q", key, v)
	}
	return d
}
