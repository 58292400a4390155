// Package ws maintains the latest market price over the exchange's
// websocket mini-ticker stream. It is an optional low-latency alternative to
// polling the REST ticker: the loop still asks for a price every iteration,
// the feed just answers from the stream's last tick.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	readTimeout      = 90 * time.Second // server pings every ~20s
	initialBackoff   = time.Second
	maxBackoff       = 30 * time.Second
	backoffMultipler = 2
)

// miniTicker is the stream payload; only the last price is consumed.
type miniTicker struct {
	Symbol string `json:"s"`
	Close  string `json:"c"`
}

// Feed holds the most recent price from the stream.
type Feed struct {
	baseURL string // e.g. "wss://stream.binance.com:9443"
	symbol  string

	mu     sync.RWMutex
	last   float64
	lastAt time.Time

	// OnState is an optional health hook, invoked on connect/disconnect.
	OnState func(connected bool)
}

// New creates a Feed for the symbol (exchange notation, e.g. "BTCUSDT").
func New(baseURL, symbol string) *Feed {
	return &Feed{baseURL: baseURL, symbol: symbol}
}

// Start connects and keeps reading until ctx is cancelled, reconnecting with
// exponential backoff on any failure.
func (f *Feed) Start(ctx context.Context) {
	go func() {
		backoff := initialBackoff
		for {
			if ctx.Err() != nil {
				return
			}
			err := f.readLoop(ctx)
			if ctx.Err() != nil {
				return
			}
			log.Printf("[ws] stream closed: %v (reconnecting in %v)", err, backoff)

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= backoffMultipler
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}()
}

func (f *Feed) readLoop(ctx context.Context) error {
	url := fmt.Sprintf("%s/ws/%s@miniTicker", f.baseURL, strings.ToLower(f.symbol))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	log.Printf("[ws] connected to %s", url)
	if f.OnState != nil {
		f.OnState(true)
	}
	defer func() {
		if f.OnState != nil {
			f.OnState(false)
		}
	}()

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	// Close the connection when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		price, err := parseTick(msg)
		if err != nil {
			log.Printf("[ws] parse error: %v", err)
			continue
		}
		f.mu.Lock()
		f.last = price
		f.lastAt = time.Now()
		f.mu.Unlock()
	}
}

// Last returns the most recent streamed price and its receive time.
// ok is false until the first tick arrives.
func (f *Feed) Last() (price float64, at time.Time, ok bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.last, f.lastAt, !f.lastAt.IsZero()
}

func parseTick(msg []byte) (float64, error) {
	var t miniTicker
	if err := json.Unmarshal(msg, &t); err != nil {
		return 0, err
	}
	if t.Close == "" {
		return 0, fmt.Errorf("tick without close price: %s", msg)
	}
	return strconv.ParseFloat(t.Close, 64)
}
