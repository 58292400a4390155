// Package stoploss holds the smoothing state for the dynamic stop-loss band.
package stoploss

import "spotbotv1/internal/indicator"

// Model owns a smoothed stop-loss percentage, independent of the percentage
// tracked in the trading state. It exists for callers that delegate indicator
// computation to a separate strategy object and must not share the trade
// loop's accumulator.
type Model struct {
	pct        float64
	multiplier float64
	floor      float64
	ceiling    float64
}

// New creates a Model seeded at seedPct. The seed should lie within
// [floor, ceiling]; the band then holds for every subsequent evaluation.
func New(seedPct, multiplier, floor, ceiling float64) *Model {
	return &Model{
		pct:        seedPct,
		multiplier: multiplier,
		floor:      floor,
		ceiling:    ceiling,
	}
}

// Price evaluates the stop-loss price for the given purchase price and
// current volatility, advancing the internal smoothed percentage.
func (m *Model) Price(purchasePrice, volatility float64) float64 {
	stop, pct := indicator.LossStrategy(purchasePrice, volatility, m.pct, m.multiplier, m.floor, m.ceiling)
	m.pct = pct
	return stop
}

// Percentage returns the current smoothed stop-loss percentage.
func (m *Model) Percentage() float64 { return m.pct }
