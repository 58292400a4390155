package model

import (
	"encoding/json"
	"time"
)

// DecisionSnapshot captures the quantities evaluated in one trade loop
// iteration. Emitted every iteration regardless of whether an order fired.
type DecisionSnapshot struct {
	Symbol        string    `json:"symbol"`
	TS            time.Time `json:"ts"`
	Price         float64   `json:"price"`
	MovingAverage float64   `json:"moving_average"`
	RSI           float64   `json:"rsi"`
	Volatility    float64   `json:"volatility"`
	OpenPosition  bool      `json:"open_position"`
	Action        string    `json:"action"` // HOLD, BUY, SELL, TERMINATE
	TargetPrice   float64   `json:"target_price,omitempty"`
}

// JSON returns the JSON-encoded snapshot (ignoring errors for hot-path usage).
func (d *DecisionSnapshot) JSON() []byte {
	b, _ := json.Marshal(d)
	return b
}

// TradeEvent records an executed (or simulated) fill.
type TradeEvent struct {
	Symbol       string    `json:"symbol"`
	Side         Side      `json:"side"`
	OrderID      int64     `json:"order_id"`
	Price        float64   `json:"price"`
	Qty          float64   `json:"qty"`
	Profit       float64   `json:"profit"`        // 0 for buys
	TotalBenefit float64   `json:"total_benefit"` // cumulative after this trade
	TestMode     bool      `json:"test_mode"`
	FilledAt     time.Time `json:"filled_at"`
}

// JSON returns the JSON-encoded event.
func (t *TradeEvent) JSON() []byte {
	b, _ := json.Marshal(t)
	return b
}
