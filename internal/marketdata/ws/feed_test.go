package ws

import (
	"context"
	"errors"
	"testing"
	"time"

	"spotbotv1/internal/model"
)

func TestParseTick(t *testing.T) {
	msg := []byte(`{"e":"24hrMiniTicker","E":1700000000000,"s":"BTCUSDT","c":"43250.51","o":"43000.00","h":"43500.00","l":"42900.00","v":"1234.5","q":"53000000.0"}`)
	price, err := parseTick(msg)
	if err != nil {
		t.Fatalf("parseTick: %v", err)
	}
	if price != 43250.51 {
		t.Errorf("price=%v, want 43250.51", price)
	}
}

func TestParseTick_Invalid(t *testing.T) {
	cases := [][]byte{
		[]byte(`{}`),
		[]byte(`{"s":"BTCUSDT","c":"nope"}`),
		[]byte(`not json`),
	}
	for i, msg := range cases {
		if _, err := parseTick(msg); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestFeed_LastBeforeFirstTick(t *testing.T) {
	f := New("wss://example", "BTCUSDT")
	if _, _, ok := f.Last(); ok {
		t.Error("ok=true before any tick")
	}
}

type restStub struct {
	price  float64
	err    error
	called int
}

func (r *restStub) Price(ctx context.Context, symbol string) (float64, error) {
	r.called++
	return r.price, r.err
}

func (r *restStub) Klines(ctx context.Context, symbol, interval string, limit int) ([]model.KlineRow, error) {
	return nil, nil
}

func TestSource_UsesFreshStreamTick(t *testing.T) {
	f := New("wss://example", "BTCUSDT")
	f.mu.Lock()
	f.last = 100.5
	f.lastAt = time.Now()
	f.mu.Unlock()

	rest := &restStub{price: 99}
	s := NewSource(f, rest, 10*time.Second)

	p, err := s.Price(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if p != 100.5 {
		t.Errorf("price=%v, want streamed 100.5", p)
	}
	if rest.called != 0 {
		t.Errorf("REST consulted despite fresh tick")
	}
}

func TestSource_FallsBackWhenStale(t *testing.T) {
	f := New("wss://example", "BTCUSDT")
	f.mu.Lock()
	f.last = 100.5
	f.lastAt = time.Now().Add(-time.Minute)
	f.mu.Unlock()

	rest := &restStub{price: 99}
	s := NewSource(f, rest, 10*time.Second)

	p, err := s.Price(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if p != 99 || rest.called != 1 {
		t.Errorf("price=%v called=%d, want REST fallback", p, rest.called)
	}
}

func TestSource_FallsBackBeforeFirstTick(t *testing.T) {
	f := New("wss://example", "BTCUSDT")
	rest := &restStub{err: errors.New("down")}
	s := NewSource(f, rest, 10*time.Second)

	if _, err := s.Price(context.Background(), "BTCUSDT"); err == nil {
		t.Error("expected REST error to surface")
	}
}
