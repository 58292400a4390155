// Package indicator provides the technical indicator calculations the trade
// loop evaluates every iteration: moving average, RSI, volatility, and the
// commission-aware pricing formulas.
//
// All functions are pure. The stop-loss smoother takes its previous value as
// an explicit argument and returns the new one; callers own the accumulator.
package indicator

import "math"

// MovingAverage returns the sum of prices divided by the configured period.
// The divisor is the period, not len(prices): feeding a series shorter or
// longer than the window skews the result accordingly. The trade loop always
// supplies exactly period closes, which makes the two equivalent there.
func MovingAverage(prices []float64, period int) float64 {
	var sum float64
	for _, p := range prices {
		sum += p
	}
	return sum / float64(period)
}

// RSI computes the relative strength index over pairwise deltas of prices.
// Gains and loss magnitudes are each averaged over period; the relative
// strength is taken as 0 when there are no losing deltas, so an all-gains
// series reads 0 rather than the conventional 100. Callers pass period+1
// closes to get period deltas.
func RSI(prices []float64, period int) float64 {
	var avgGain, avgLoss float64
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss += -delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	rs := 0.0
	if avgLoss != 0 {
		rs = avgGain / avgLoss
	}
	return 100 - 100/(1+rs)
}

// Volatility returns the sample standard deviation of prices, with the
// (n-1) divisor. Fewer than two samples yield 0.
func Volatility(prices []float64) float64 {
	n := len(prices)
	if n < 2 {
		return 0
	}

	var sum float64
	for _, p := range prices {
		sum += p
	}
	mean := sum / float64(n)

	var sqDev float64
	for _, p := range prices {
		d := p - mean
		sqDev += d * d
	}
	return math.Sqrt(sqDev / float64(n-1))
}
