package ws

import (
	"context"
	"time"

	"spotbotv1/internal/model"
)

// Source implements model.MarketData by answering price queries from the
// stream when its last tick is fresh, falling back to the REST collaborator
// otherwise. Klines always go through REST.
type Source struct {
	feed   *Feed
	rest   model.MarketData
	maxAge time.Duration
	now    func() time.Time
}

// NewSource wraps rest with the feed. maxAge bounds how stale a streamed
// tick may be before the REST ticker is consulted instead.
func NewSource(feed *Feed, rest model.MarketData, maxAge time.Duration) *Source {
	return &Source{feed: feed, rest: rest, maxAge: maxAge, now: time.Now}
}

func (s *Source) Price(ctx context.Context, symbol string) (float64, error) {
	if price, at, ok := s.feed.Last(); ok && s.now().Sub(at) <= s.maxAge {
		return price, nil
	}
	return s.rest.Price(ctx, symbol)
}

func (s *Source) Klines(ctx context.Context, symbol, interval string, limit int) ([]model.KlineRow, error) {
	return s.rest.Klines(ctx, symbol, interval, limit)
}
