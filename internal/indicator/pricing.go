package indicator

// Commission handling: the exchange fee rate is reduced by the configured
// discount (e.g. paying fees in the exchange token), giving an effective rate
// fee*(1-discount) applied on both legs of a round trip.

func effectiveRate(fee, discount float64) float64 {
	return fee * (1 - discount)
}

// MinimumSellingPrice returns the per-unit price at which selling qty units
// covers the full purchase cost (including the buy-side commission), the
// sell-side commission, and still nets at least targetProfit.
func MinimumSellingPrice(purchasePrice, qty, fee, discount, targetProfit float64) float64 {
	rate := effectiveRate(fee, discount)
	cost := purchasePrice * qty
	minProceeds := cost + cost*rate + targetProfit
	return minProceeds / (1 - rate) / qty
}

// Profit returns the realized net profit of a round trip: sell proceeds net
// of commission minus purchase cost including commission. Negative when the
// trip lost money.
func Profit(purchasePrice, sellPrice, qty, fee, discount float64) float64 {
	rate := effectiveRate(fee, discount)
	proceeds := sellPrice * qty * (1 - rate)
	cost := purchasePrice * qty * (1 + rate)
	return proceeds - cost
}
