package model

import "fmt"

// The core distinguishes three error kinds so the trade loop can report a
// precise failure cause without string matching: a candle field that does not
// parse, a call the exchange rejected, and a network-level failure reaching
// the exchange. None are retried inside the core — any of them ends the loop.

// ParseError reports a kline field that could not be parsed as a decimal.
// Row carries the serialized offending row for diagnosis.
type ParseError struct {
	Row string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse kline close: %v (row=%s)", e.Err, e.Row)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExchangeError reports a request the exchange accepted transport-wise but
// rejected (bad symbol, bad signature, insufficient balance, ...).
type ExchangeError struct {
	Op      string // e.g. "place order", "open orders"
	Code    int
	Message string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchange: %s: code=%d msg=%q", e.Op, e.Code, e.Message)
}

// TransientError reports a network-level failure reaching the exchange.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("exchange: %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }
