package indicator

// SmoothStopLoss folds a freshly derived stop-loss percentage into the
// previous one: raw is clamped to [floor, ceiling], then averaged with prev.
// With prev already inside the band the result stays inside it.
func SmoothStopLoss(prev, raw, floor, ceiling float64) float64 {
	if raw < floor {
		raw = floor
	}
	if raw > ceiling {
		raw = ceiling
	}
	return (prev + raw) / 2
}

// LossStrategy sizes the stop-loss band from current volatility and returns
// the resulting stop price together with the new smoothed percentage. The
// caller stores newPct and passes it back as prevPct on the next evaluation;
// the function itself holds no state.
func LossStrategy(purchasePrice, volatility, prevPct, multiplier, floor, ceiling float64) (stopPrice, newPct float64) {
	raw := volatility * multiplier
	newPct = SmoothStopLoss(prevPct, raw, floor, ceiling)
	return purchasePrice * (1 - newPct), newPct
}
