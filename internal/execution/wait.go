package execution

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spotbotv1/internal/model"
)

// ErrFillTimeout reports that an order stayed open past the configured bound.
var ErrFillTimeout = fmt.Errorf("order fulfillment wait timed out")

// waitFill polls the open orders for the symbol and returns once no open
// order with the given side remains. Polls are spaced by OrderPollWait and
// the whole wait is bounded by OrderTimeout and the caller's context, so an
// order that never fills cannot hang the loop forever.
func (e *Executor) waitFill(ctx context.Context, side model.Side) error {
	start := time.Now()
	deadline := start.Add(e.cfg.OrderTimeout)

	defer func() {
		if e.OnFillWait != nil {
			e.OnFillWait(time.Since(start))
		}
	}()

	for {
		orders, err := e.gateway.OpenOrders(ctx, e.cfg.Symbol)
		if err != nil {
			return err
		}
		if !anySide(orders, side) {
			return nil
		}

		if e.cfg.OrderTimeout > 0 && time.Now().After(deadline) {
			return fmt.Errorf("%w: side=%s symbol=%s after %v", ErrFillTimeout, side, e.cfg.Symbol, e.cfg.OrderTimeout)
		}

		e.log.DebugContext(ctx, "order still open, waiting",
			slog.String("side", string(side)),
			slog.String("symbol", e.cfg.Symbol))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.cfg.OrderPollWait):
		}
	}
}

func anySide(orders []model.Order, side model.Side) bool {
	for i := range orders {
		if orders[i].Side == side {
			return true
		}
	}
	return false
}
