package indicator

import (
	"math"
	"testing"
)

// ────────────────────────────────────────────────────────────
// Helper
// ────────────────────────────────────────────────────────────

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

// ────────────────────────────────────────────────────────────
// MovingAverage
// ────────────────────────────────────────────────────────────

func TestMovingAverage_DividesByPeriod(t *testing.T) {
	// The divisor is the configured period, not the sample count.
	// Constant series C=100 over n=3 with period=5: (100*3)/5 = 60.
	got := MovingAverage([]float64{100, 100, 100}, 5)
	assertClose(t, "MA(period=5, n=3)", got, 60.0, 0.0001)

	// n == period: matches the conventional mean.
	got = MovingAverage([]float64{100, 102, 104, 103, 105}, 5)
	assertClose(t, "MA(period=5, n=5)", got, 102.8, 0.0001)

	// n > period: skews above the mean.
	got = MovingAverage([]float64{10, 10, 10, 10}, 2)
	assertClose(t, "MA(period=2, n=4)", got, 20.0, 0.0001)
}

func TestMovingAverage_Empty(t *testing.T) {
	assertClose(t, "MA(empty)", MovingAverage(nil, 5), 0.0, 0.0001)
}

// ────────────────────────────────────────────────────────────
// RSI
// ────────────────────────────────────────────────────────────

func TestRSI_KnownSeries(t *testing.T) {
	// Deltas: +2, -4, +3, +2 → gains=7, losses=4
	// avgGain=7/5=1.4, avgLoss=4/5=0.8, rs=1.75
	// RSI = 100 - 100/2.75 = 63.6364
	got := RSI([]float64{100, 102, 98, 101, 103}, 5)
	assertClose(t, "RSI known series", got, 63.6364, 0.01)
}

func TestRSI_NonDecreasingSeriesReadsZero(t *testing.T) {
	// With no losing deltas the relative strength is taken as 0, so an
	// all-gains series reads 0 (not the conventional 100).
	cases := [][]float64{
		{100, 101, 102, 103, 104},
		{100, 100, 100, 100},
		{1, 2, 2, 3},
	}
	for i, prices := range cases {
		if got := RSI(prices, len(prices)-1); got != 0 {
			t.Errorf("case %d: RSI=%v, want exactly 0", i, got)
		}
	}
}

func TestRSI_AllLosses(t *testing.T) {
	// Deltas: -1, -1, -1 → avgGain=0, avgLoss=1, rs=0 → RSI=0.
	got := RSI([]float64{103, 102, 101, 100}, 3)
	assertClose(t, "RSI all losses", got, 0.0, 0.0001)
}

// ────────────────────────────────────────────────────────────
// Volatility
// ────────────────────────────────────────────────────────────

func TestVolatility_TwoElementSample(t *testing.T) {
	// Mean=101.1, squared deviations 0.25+0.25=0.5, /(n-1)=0.5, sqrt≈0.7071.
	got := Volatility([]float64{100.6, 101.6})
	if got <= 0 || math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("Volatility: got %v, want positive finite", got)
	}
	assertClose(t, "Volatility([100.6 101.6])", got, 0.70710678, 0.0001)

	// Deterministic for identical input.
	again := Volatility([]float64{100.6, 101.6})
	if got != again {
		t.Errorf("Volatility not deterministic: %v vs %v", got, again)
	}
}

func TestVolatility_Degenerate(t *testing.T) {
	if got := Volatility([]float64{100}); got != 0 {
		t.Errorf("Volatility(single): got %v, want 0", got)
	}
	if got := Volatility(nil); got != 0 {
		t.Errorf("Volatility(empty): got %v, want 0", got)
	}
	if got := Volatility([]float64{5, 5, 5, 5}); got != 0 {
		t.Errorf("Volatility(constant): got %v, want 0", got)
	}
}

// ────────────────────────────────────────────────────────────
// Stop loss
// ────────────────────────────────────────────────────────────

func TestSmoothStopLoss_ClampsThenAverages(t *testing.T) {
	// raw above ceiling → clamped to 0.15, smoothed (0.05+0.15)/2 = 0.10
	assertClose(t, "smooth high", SmoothStopLoss(0.05, 0.40, 0.02, 0.15), 0.10, 1e-9)
	// raw below floor → clamped to 0.02, smoothed (0.05+0.02)/2 = 0.035
	assertClose(t, "smooth low", SmoothStopLoss(0.05, 0.001, 0.02, 0.15), 0.035, 1e-9)
	// raw in band → plain average
	assertClose(t, "smooth mid", SmoothStopLoss(0.04, 0.06, 0.02, 0.15), 0.05, 1e-9)
}

func TestLossStrategy_StopBelowPurchase(t *testing.T) {
	const (
		floor   = 0.02
		ceiling = 0.15
	)
	stop, pct := LossStrategy(100, 0.05, 0.05, 2.0, floor, ceiling)

	if stop >= 100 {
		t.Errorf("stop price %v not strictly below purchase price", stop)
	}
	if pct < floor || pct > ceiling {
		t.Errorf("smoothed pct %v outside [%v, %v]", pct, floor, ceiling)
	}
	// raw = 0.05*2 = 0.10 (in band), smoothed (0.05+0.10)/2 = 0.075 → stop 92.5
	assertClose(t, "stop price", stop, 92.5, 1e-9)
	assertClose(t, "new pct", pct, 0.075, 1e-9)
}

func TestLossStrategy_PctStaysInBandAcrossEvaluations(t *testing.T) {
	const (
		floor   = 0.02
		ceiling = 0.15
	)
	pct := 0.05 // seed inside the band
	vols := []float64{0.0, 0.01, 0.5, 3.0, 0.07, 0.0}
	for i, vol := range vols {
		var stop float64
		stop, pct = LossStrategy(250, vol, pct, 1.5, floor, ceiling)
		if pct < floor || pct > ceiling {
			t.Fatalf("eval %d: pct %v escaped [%v, %v]", i, pct, floor, ceiling)
		}
		if stop >= 250 {
			t.Fatalf("eval %d: stop %v not below purchase", i, stop)
		}
	}
}

// ────────────────────────────────────────────────────────────
// Pricing
// ────────────────────────────────────────────────────────────

func TestMinimumSellingPrice_CoversTarget(t *testing.T) {
	// Selling exactly at the minimum price must net exactly the target.
	cases := []struct {
		purchase, qty, fee, discount, target float64
	}{
		{100, 2, 0.001, 0.25, 1.0},
		{43250.50, 0.004, 0.001, 0, 0.75},
		{0.085, 1200, 0.00075, 0.1, 2.5},
		{100, 1, 0, 0, 5}, // fee-free: purchase + target
	}
	for i, c := range cases {
		msp := MinimumSellingPrice(c.purchase, c.qty, c.fee, c.discount, c.target)
		if msp <= c.purchase {
			t.Errorf("case %d: msp %v not above purchase %v", i, msp, c.purchase)
		}
		net := Profit(c.purchase, msp, c.qty, c.fee, c.discount)
		assertClose(t, "net at msp", net, c.target, 1e-6)
	}
}

func TestMinimumSellingPrice_FeeFree(t *testing.T) {
	// Without commission the formula degenerates to purchase + target/qty.
	msp := MinimumSellingPrice(100, 2, 0, 0, 4)
	assertClose(t, "fee-free msp", msp, 102.0, 1e-9)
}

func TestProfit_RoundTrip(t *testing.T) {
	// purchase=100 sell=110 qty=2 fee=0.001 discount=0
	// proceeds = 220*0.999 = 219.78, cost = 200*1.001 = 200.2 → 19.58
	got := Profit(100, 110, 2, 0.001, 0)
	assertClose(t, "profit", got, 19.58, 1e-9)

	// A flat exit loses both commissions.
	got = Profit(100, 100, 1, 0.001, 0)
	assertClose(t, "flat exit", got, -0.2, 1e-9)
}

func TestProfit_DiscountReducesCommission(t *testing.T) {
	full := Profit(100, 110, 1, 0.002, 0)
	discounted := Profit(100, 110, 1, 0.002, 0.25)
	if discounted <= full {
		t.Errorf("discounted profit %v not greater than undiscounted %v", discounted, full)
	}
}
