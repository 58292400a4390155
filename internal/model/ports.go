package model

import "context"

// ── Exchange Port Interfaces ──
// These interfaces are the narrow contract between the decision core and the
// exchange collaborator. The HTTP client satisfies all of them; tests plug in
// fakes.

// MarketData is the read side of the exchange: live price and candle history.
type MarketData interface {
	// Price returns the current price for the symbol.
	Price(ctx context.Context, symbol string) (float64, error)

	// Klines returns the last limit candles at the given interval, oldest
	// first, as raw rows.
	Klines(ctx context.Context, symbol, interval string, limit int) ([]KlineRow, error)
}

// OrderGateway is the write side of the exchange: order placement and the
// open-order query the fulfillment wait polls.
type OrderGateway interface {
	// PlaceOrder submits a limit order to the live market.
	PlaceOrder(ctx context.Context, symbol string, qty, price float64, side Side) (Order, error)

	// PlaceTestOrder submits the same request to the exchange's dry-run
	// endpoint. Nothing is booked; the returned order carries no ID.
	PlaceTestOrder(ctx context.Context, symbol string, qty, price float64, side Side) (Order, error)

	// OpenOrders returns all currently open orders for the symbol.
	OpenOrders(ctx context.Context, symbol string) ([]Order, error)
}

// TradeRecorder persists executed fills for audit.
type TradeRecorder interface {
	RecordTrade(ev TradeEvent) error
}

// EventPublisher fans decision snapshots and trade events out to an external
// bus. Implementations must be non-blocking on the trade path.
type EventPublisher interface {
	PublishDecision(ctx context.Context, snap DecisionSnapshot)
	PublishTrade(ctx context.Context, ev TradeEvent)
}
