// Package redis publishes decision snapshots and trade events to Redis so
// dashboards and other consumers can follow the bot live. Decisions go out
// over pub/sub only; executed trades are additionally appended to a capped
// stream for late joiners.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"spotbotv1/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	// Stream trimming: roughly a month of trades for an active symbol.
	tradeStreamMaxLen = 10000
)

// Config configures the Redis publisher.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher implements model.EventPublisher on top of Redis.
type Publisher struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// New creates a Publisher and pings the server.
func New(cfg Config) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Publisher{client: client}, nil
}

// PublishDecision sends one iteration snapshot over pub/sub. Delivery is
// best effort; a failed publish is logged and never fails the iteration.
func (p *Publisher) PublishDecision(ctx context.Context, snap model.DecisionSnapshot) {
	ch := "pub:decision:" + snap.Symbol
	if err := p.client.Publish(ctx, ch, snap.JSON()).Err(); err != nil {
		log.Printf("[redis] publish decision: %v", err)
	}
}

// PublishTrade sends a trade event over pub/sub and appends it to the capped
// trade stream.
func (p *Publisher) PublishTrade(ctx context.Context, ev model.TradeEvent) {
	payload := ev.JSON()

	ch := "pub:trade:" + ev.Symbol
	if err := p.client.Publish(ctx, ch, payload).Err(); err != nil {
		log.Printf("[redis] publish trade: %v", err)
	}

	stream := "stream:trades:" + ev.Symbol
	err := p.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: stream,
		MaxLen: tradeStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": payload},
	}).Err()
	if err != nil {
		log.Printf("[redis] xadd trade: %v", err)
	}
}

// Close releases the underlying client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
