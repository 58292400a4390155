package model

// TradingState is the mutable position bookkeeping for one traded symbol.
// Exactly one trade loop goroutine owns and mutates it; OpenPosition flips
// only inside Buy (false→true) and Sell (true→false).
type TradingState struct {
	OpenPosition        bool
	CryptoPurchasePrice float64 // fill price of the open position
	TotalPurchaseCost   float64 // qty * price * (1+fee)
	TotalBenefit        float64 // realized profit accumulated across closed trades
	StopLossPct         float64 // smoothed stop-loss percentage, seeded from config
}
