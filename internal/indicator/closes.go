package indicator

import (
	"encoding/json"
	"fmt"
	"strconv"

	"spotbotv1/internal/model"
)

// Closes extracts the closing price from each raw kline row, in input order.
// An empty input yields an empty (non-nil) slice: a market-data source may
// legitimately return no candles at a session boundary.
func Closes(rows []model.KlineRow) ([]float64, error) {
	closes := make([]float64, 0, len(rows))
	for _, row := range rows {
		c, err := closeOf(row)
		if err != nil {
			return nil, &model.ParseError{Row: row.JSON(), Err: err}
		}
		closes = append(closes, c)
	}
	return closes, nil
}

// closeOf reads the close field at its fixed index and parses it as a
// locale-independent decimal. The exchange serializes prices as strings;
// numeric values are accepted too since JSON decoding may have produced them.
func closeOf(row model.KlineRow) (float64, error) {
	if len(row) <= model.CloseIndex {
		return 0, fmt.Errorf("row has %d fields, close expected at index %d", len(row), model.CloseIndex)
	}
	switch v := row[model.CloseIndex].(type) {
	case string:
		return strconv.ParseFloat(v, 64)
	case float64:
		return v, nil
	case json.Number:
		return v.Float64()
	default:
		return 0, fmt.Errorf("close field has unsupported type %T", v)
	}
}
