// Package execution submits buy/sell orders through the exchange gateway and
// blocks until the exchange no longer reports a matching open order (the
// fulfillment wait).
//
// The Executor mutates the caller-owned TradingState; ownership stays with
// the trade loop, which passes the state into every call.
package execution

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spotbotv1/config"
	"spotbotv1/internal/indicator"
	"spotbotv1/internal/model"
	"spotbotv1/internal/notification"
)

// Executor places orders and tracks their fulfillment for a single symbol.
type Executor struct {
	cfg     *config.Config
	gateway model.OrderGateway
	log     *slog.Logger

	// Optional sinks; any of them may be nil.
	journal  model.TradeRecorder
	events   model.EventPublisher
	notifier notification.Notifier

	// Hooks for metrics; set by the wiring code.
	OnOrderPlaced func(side model.Side)
	OnFillWait    func(d time.Duration)
}

// New creates an Executor. journal, events and notifier may be nil.
func New(cfg *config.Config, gateway model.OrderGateway, log *slog.Logger,
	journal model.TradeRecorder, events model.EventPublisher, notifier notification.Notifier) *Executor {
	return &Executor{
		cfg:      cfg,
		gateway:  gateway,
		log:      log,
		journal:  journal,
		events:   events,
		notifier: notifier,
	}
}

// Buy opens a position at currentPrice: records the purchase in the state,
// submits the BUY order (dry-run endpoint in test mode), waits for
// fulfillment and flips OpenPosition to true.
func (e *Executor) Buy(ctx context.Context, st *model.TradingState, currentPrice float64) error {
	st.CryptoPurchasePrice = currentPrice
	st.TotalPurchaseCost = e.cfg.Quantity * currentPrice * (1 + e.cfg.FeePercentage)

	e.log.InfoContext(ctx, "submitting buy order",
		slog.String("symbol", e.cfg.Symbol),
		slog.Float64("price", currentPrice),
		slog.Float64("qty", e.cfg.Quantity),
		slog.Float64("total_cost", st.TotalPurchaseCost),
		slog.Bool("test_mode", e.cfg.TestMode))

	order, err := e.place(ctx, currentPrice, model.SideBuy)
	if err != nil {
		return err
	}

	if err := e.waitFill(ctx, model.SideBuy); err != nil {
		return err
	}
	st.OpenPosition = true

	e.log.InfoContext(ctx, "buy order filled",
		slog.String("symbol", e.cfg.Symbol),
		slog.Int64("order_id", order.OrderID),
		slog.Float64("price", currentPrice))

	e.recordTrade(ctx, model.TradeEvent{
		Symbol:       e.cfg.Symbol,
		Side:         model.SideBuy,
		OrderID:      order.OrderID,
		Price:        currentPrice,
		Qty:          e.cfg.Quantity,
		TotalBenefit: st.TotalBenefit,
		TestMode:     e.cfg.TestMode,
		FilledAt:     time.Now().UTC(),
	})
	return nil
}

// Sell evaluates the exit condition at currentPrice. Below the minimum
// profitable price it returns (target, false, nil) with no side effects.
// Otherwise it realizes the profit, submits the SELL order, waits for
// fulfillment, flips OpenPosition to false and reports done=true once the
// accumulated benefit reaches the configured limit.
//
// The stop-loss price is evaluated on every executed sell and logged for
// diagnosis; it does not gate the decision. The sell branch is only reached
// at or above the target price, which sits above the purchase price, so the
// stop-loss log line fires only under pathological parameters.
func (e *Executor) Sell(ctx context.Context, st *model.TradingState, currentPrice, volatility float64) (targetPrice float64, done bool, err error) {
	targetPrice = indicator.MinimumSellingPrice(
		st.CryptoPurchasePrice, e.cfg.Quantity, e.cfg.FeePercentage, e.cfg.Discount, e.cfg.TargetProfit)

	if currentPrice < targetPrice {
		return targetPrice, false, nil
	}

	profit := indicator.Profit(
		st.CryptoPurchasePrice, currentPrice, e.cfg.Quantity, e.cfg.FeePercentage, e.cfg.Discount)

	stopPrice, pct := indicator.LossStrategy(
		st.CryptoPurchasePrice, volatility, st.StopLossPct,
		e.cfg.VolatilityMultiplier, e.cfg.FloorStopLossPct, e.cfg.CeilingStopLossPct)
	st.StopLossPct = pct
	if currentPrice <= stopPrice {
		e.log.WarnContext(ctx, "selling at or below stop loss price",
			slog.Float64("price", currentPrice),
			slog.Float64("stop_price", stopPrice))
	}

	e.log.InfoContext(ctx, "submitting sell order",
		slog.String("symbol", e.cfg.Symbol),
		slog.Float64("price", currentPrice),
		slog.Float64("target_price", targetPrice),
		slog.Float64("stop_price", stopPrice),
		slog.Float64("profit", profit),
		slog.Bool("test_mode", e.cfg.TestMode))

	st.TotalBenefit += profit

	order, err := e.place(ctx, currentPrice, model.SideSell)
	if err != nil {
		return targetPrice, false, err
	}
	if err := e.waitFill(ctx, model.SideSell); err != nil {
		return targetPrice, false, err
	}
	st.OpenPosition = false

	e.log.InfoContext(ctx, "sell order filled",
		slog.String("symbol", e.cfg.Symbol),
		slog.Int64("order_id", order.OrderID),
		slog.Float64("profit", profit),
		slog.Float64("total_benefit", st.TotalBenefit))

	e.recordTrade(ctx, model.TradeEvent{
		Symbol:       e.cfg.Symbol,
		Side:         model.SideSell,
		OrderID:      order.OrderID,
		Price:        currentPrice,
		Qty:          e.cfg.Quantity,
		Profit:       profit,
		TotalBenefit: st.TotalBenefit,
		TestMode:     e.cfg.TestMode,
		FilledAt:     time.Now().UTC(),
	})

	return targetPrice, st.TotalBenefit >= e.cfg.LimitBenefit, nil
}

func (e *Executor) place(ctx context.Context, price float64, side model.Side) (model.Order, error) {
	var (
		order model.Order
		err   error
	)
	if e.cfg.TestMode {
		order, err = e.gateway.PlaceTestOrder(ctx, e.cfg.Symbol, e.cfg.Quantity, price, side)
	} else {
		order, err = e.gateway.PlaceOrder(ctx, e.cfg.Symbol, e.cfg.Quantity, price, side)
	}
	if err != nil {
		return model.Order{}, err
	}
	if order.Rejected() {
		return model.Order{}, &model.ExchangeError{Op: "place order", Code: order.Code, Message: order.Message}
	}
	if e.OnOrderPlaced != nil {
		e.OnOrderPlaced(side)
	}
	return order, nil
}

func (e *Executor) recordTrade(ctx context.Context, ev model.TradeEvent) {
	if e.journal != nil {
		if err := e.journal.RecordTrade(ev); err != nil {
			// Audit failure must not undo an executed trade.
			e.log.ErrorContext(ctx, "journal write failed", slog.String("error", err.Error()))
		}
	}
	if e.events != nil {
		e.events.PublishTrade(ctx, ev)
	}
	if e.notifier != nil {
		title := fmt.Sprintf("%s %s", ev.Side, ev.Symbol)
		msg := fmt.Sprintf("price=%.8g qty=%.8g profit=%.4f total=%.4f", ev.Price, ev.Qty, ev.Profit, ev.TotalBenefit)
		if err := e.notifier.Send(ctx, notification.Alert{Level: notification.AlertInfo, Title: title, Message: msg}); err != nil {
			e.log.WarnContext(ctx, "notification failed", slog.String("error", err.Error()))
		}
	}
}
