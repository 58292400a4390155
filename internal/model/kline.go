package model

import "encoding/json"

// KlineRow is one raw candlestick row as returned by the exchange klines
// endpoint: an ordered array of mixed numeric/string values
// [openTime, open, high, low, close, volume, closeTime, ...].
// Only the close field (index 4) is consumed by the decision core; the row is
// kept raw so the extractor owns all parsing.
type KlineRow []any

// CloseIndex is the fixed position of the closing price within a KlineRow,
// per exchange convention.
const CloseIndex = 4

// JSON returns the JSON-encoded row, used in parse error diagnostics.
func (k KlineRow) JSON() string {
	b, err := json.Marshal([]any(k))
	if err != nil {
		return "<unencodable kline row>"
	}
	return string(b)
}
