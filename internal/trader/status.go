package trader

import (
	"sync"
	"time"

	"spotbotv1/internal/model"
	"spotbotv1/internal/ringbuf"
)

// Status is a read-only view of the loop for the HTTP API.
type Status struct {
	Symbol        string    `json:"symbol"`
	TestMode      bool      `json:"test_mode"`
	StartedAt     time.Time `json:"started_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Iterations    int64     `json:"iterations"`
	OpenPosition  bool      `json:"open_position"`
	PurchasePrice float64   `json:"purchase_price"`
	TotalBenefit  float64   `json:"total_benefit"`
	StopLossPct   float64   `json:"stop_loss_pct"`
	LastAction    string    `json:"last_action"`
	Price         float64   `json:"price"`
	MovingAverage float64   `json:"moving_average"`
	RSI           float64   `json:"rsi"`
	Volatility    float64   `json:"volatility"`
	RecentPrices  []float64 `json:"recent_prices"`
}

// Tracker bridges the single-writer loop and concurrent API readers. The
// loop records a snapshot every iteration; readers never touch TradingState.
type Tracker struct {
	mu     sync.RWMutex
	status Status
	prices *ringbuf.Window
}

// NewTracker creates a Tracker retaining the last priceWindow prices.
func NewTracker(symbol string, testMode bool, priceWindow int) *Tracker {
	return &Tracker{
		status: Status{
			Symbol:    symbol,
			TestMode:  testMode,
			StartedAt: time.Now().UTC(),
		},
		prices: ringbuf.New(priceWindow),
	}
}

// Record stores the outcome of one loop iteration.
func (t *Tracker) Record(snap model.DecisionSnapshot, st model.TradingState) {
	t.prices.Push(snap.Price)

	t.mu.Lock()
	t.status.UpdatedAt = snap.TS
	t.status.Iterations++
	t.status.OpenPosition = st.OpenPosition
	t.status.PurchasePrice = st.CryptoPurchasePrice
	t.status.TotalBenefit = st.TotalBenefit
	t.status.StopLossPct = st.StopLossPct
	t.status.LastAction = snap.Action
	t.status.Price = snap.Price
	t.status.MovingAverage = snap.MovingAverage
	t.status.RSI = snap.RSI
	t.status.Volatility = snap.Volatility
	t.mu.Unlock()
}

// Snapshot returns the current status including the recent price window.
func (t *Tracker) Snapshot() Status {
	t.mu.RLock()
	s := t.status
	t.mu.RUnlock()
	s.RecentPrices = t.prices.Values()
	return s
}
