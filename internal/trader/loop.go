// Package trader runs the per-symbol decision loop: poll price and candles,
// derive indicators, decide entry/exit, hand orders to the executor and track
// the mutable trading state.
//
// Exactly one Loop instance runs per traded symbol. The loop goroutine is the
// single writer of the TradingState; everything it shares with other
// goroutines goes through the status Tracker.
package trader

import (
	"context"
	"log/slog"
	"time"

	"spotbotv1/config"
	"spotbotv1/internal/indicator"
	"spotbotv1/internal/logger"
	"spotbotv1/internal/model"
)

// OrderExecutor is the slice of the execution layer the loop drives.
type OrderExecutor interface {
	Buy(ctx context.Context, st *model.TradingState, currentPrice float64) error
	Sell(ctx context.Context, st *model.TradingState, currentPrice, volatility float64) (targetPrice float64, done bool, err error)
}

// Loop is the trade loop state machine for one symbol.
type Loop struct {
	cfg      *config.Config
	market   model.MarketData
	executor OrderExecutor
	log      *slog.Logger

	// Optional collaborators; may be nil.
	events model.EventPublisher
	status *Tracker

	// OnDecision is an optional metrics hook invoked once per iteration.
	OnDecision func(snap model.DecisionSnapshot)

	state model.TradingState
}

// New creates a Loop with the stop-loss percentage seeded from config.
func New(cfg *config.Config, market model.MarketData, executor OrderExecutor,
	log *slog.Logger, events model.EventPublisher, status *Tracker) *Loop {
	return &Loop{
		cfg:      cfg,
		market:   market,
		executor: executor,
		log:      log,
		events:   events,
		status:   status,
		state:    model.TradingState{StopLossPct: cfg.SeedStopLossPct},
	}
}

// State returns a copy of the current trading state.
func (l *Loop) State() model.TradingState { return l.state }

// Run iterates until the cumulative benefit limit is reached (returns nil),
// the context is cancelled, or an iteration fails. Errors are not retried:
// a failed fetch or order submission terminates trading for the symbol.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("trade loop starting",
		slog.String("symbol", l.cfg.Symbol),
		slog.String("interval", l.cfg.Interval),
		slog.Int("period", l.cfg.Period),
		slog.Bool("test_mode", l.cfg.TestMode))

	for {
		done, err := l.iterate(ctx)
		if err != nil {
			return err
		}
		if done {
			l.log.Info("benefit limit reached, terminating",
				slog.String("symbol", l.cfg.Symbol),
				slog.Float64("total_benefit", l.state.TotalBenefit),
				slog.Float64("limit", l.cfg.LimitBenefit))
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.cfg.PollInterval):
		}
	}
}

// iterate executes one pass of the state machine.
func (l *Loop) iterate(ctx context.Context) (bool, error) {
	ctx = logger.WithCycleID(ctx, logger.NewCycleID(l.cfg.Symbol, time.Now()))

	price, rows, err := l.fetch(ctx)
	if err != nil {
		return false, err
	}

	closes, err := indicator.Closes(rows)
	if err != nil {
		return false, err
	}

	// The kline fetch asks for Period+1 candles so the RSI sees Period
	// deltas; the moving average and volatility use the last Period closes.
	recent := closes
	if len(recent) > l.cfg.Period {
		recent = recent[len(recent)-l.cfg.Period:]
	}
	movingAverage := indicator.MovingAverage(recent, l.cfg.Period)
	rsi := indicator.RSI(closes, l.cfg.Period)
	volatility := indicator.Volatility(recent)

	snap := model.DecisionSnapshot{
		Symbol:        l.cfg.Symbol,
		TS:            time.Now().UTC(),
		Price:         price,
		MovingAverage: movingAverage,
		RSI:           rsi,
		Volatility:    volatility,
		OpenPosition:  l.state.OpenPosition,
		Action:        "HOLD",
	}

	var done bool
	switch {
	case !l.state.OpenPosition && rsi <= l.cfg.MaxRSI && price < movingAverage:
		if err := l.executor.Buy(ctx, &l.state, price); err != nil {
			return false, err
		}
		snap.Action = "BUY"

	case l.state.OpenPosition:
		target, d, err := l.executor.Sell(ctx, &l.state, price, volatility)
		if err != nil {
			return false, err
		}
		snap.TargetPrice = target
		if !l.state.OpenPosition {
			snap.Action = "SELL"
		}
		if d {
			snap.Action = "TERMINATE"
			done = true
		}
	}
	snap.OpenPosition = l.state.OpenPosition

	// Every iteration logs the evaluated quantities, whatever the action.
	l.log.InfoContext(ctx, "iteration evaluated",
		append([]any{
			slog.String("symbol", l.cfg.Symbol),
			slog.Float64("price", price),
			slog.Float64("moving_average", movingAverage),
			slog.Float64("rsi", rsi),
			slog.Float64("volatility", volatility),
			slog.Bool("open_position", l.state.OpenPosition),
			slog.Float64("total_benefit", l.state.TotalBenefit),
			slog.String("action", snap.Action),
		}, logger.CycleAttrs(ctx)...)...)

	if l.status != nil {
		l.status.Record(snap, l.state)
	}
	if l.events != nil {
		l.events.PublishDecision(ctx, snap)
	}
	if l.OnDecision != nil {
		l.OnDecision(snap)
	}
	return done, nil
}

// fetch issues the price and kline requests concurrently and joins both.
func (l *Loop) fetch(ctx context.Context) (float64, []model.KlineRow, error) {
	type priceResult struct {
		price float64
		err   error
	}
	type klineResult struct {
		rows []model.KlineRow
		err  error
	}

	priceCh := make(chan priceResult, 1)
	klineCh := make(chan klineResult, 1)

	go func() {
		p, err := l.market.Price(ctx, l.cfg.Symbol)
		priceCh <- priceResult{p, err}
	}()
	go func() {
		rows, err := l.market.Klines(ctx, l.cfg.Symbol, l.cfg.Interval, l.cfg.Period+1)
		klineCh <- klineResult{rows, err}
	}()

	pr := <-priceCh
	kr := <-klineCh
	if pr.err != nil {
		return 0, nil, pr.err
	}
	if kr.err != nil {
		return 0, nil, kr.err
	}
	return pr.price, kr.rows, nil
}
