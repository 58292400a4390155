// Package exchange implements the REST collaborator the decision core talks
// to: live price, candle history, order placement and the open-order query.
// The wire format follows the Binance spot API; signed endpoints use
// HMAC-SHA256 over the query string with the API key in a header.
package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"spotbotv1/internal/model"
)

// Client talks to the exchange REST API. It satisfies model.MarketData and
// model.OrderGateway.
type Client struct {
	baseURL string
	apiKey  string
	secret  string
	client  *http.Client

	// now is stubbed in tests to pin the request timestamp.
	now func() time.Time
}

// New creates a Client for the given REST base URL and credentials.
func New(baseURL, apiKey, secret string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		secret:  secret,
		client:  &http.Client{Timeout: 10 * time.Second},
		now:     time.Now,
	}
}

// Price returns the current ticker price for the symbol.
func (c *Client) Price(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	body, err := c.get(ctx, "/api/v3/ticker/price", q, false)
	if err != nil {
		return 0, err
	}

	var resp struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, &model.TransientError{Op: "ticker price", Err: err}
	}
	p, err := strconv.ParseFloat(resp.Price, 64)
	if err != nil {
		return 0, &model.TransientError{Op: "ticker price", Err: fmt.Errorf("bad price %q: %w", resp.Price, err)}
	}
	return p, nil
}

// Klines returns the last limit candles for the symbol at the given interval,
// oldest first, as raw rows. Rows are left unparsed; the indicator layer owns
// decimal parsing.
func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int) ([]model.KlineRow, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))
	body, err := c.get(ctx, "/api/v3/klines", q, false)
	if err != nil {
		return nil, err
	}

	var rows []model.KlineRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &model.TransientError{Op: "klines", Err: err}
	}
	return rows, nil
}

// PlaceOrder submits a GTC limit order to the live market.
func (c *Client) PlaceOrder(ctx context.Context, symbol string, qty, price float64, side model.Side) (model.Order, error) {
	return c.placeOrder(ctx, "/api/v3/order", symbol, qty, price, side)
}

// PlaceTestOrder submits the same request to the exchange's dry-run endpoint.
// The exchange validates and discards it; the returned order carries no ID.
func (c *Client) PlaceTestOrder(ctx context.Context, symbol string, qty, price float64, side model.Side) (model.Order, error) {
	return c.placeOrder(ctx, "/api/v3/order/test", symbol, qty, price, side)
}

func (c *Client) placeOrder(ctx context.Context, path, symbol string, qty, price float64, side model.Side) (model.Order, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("side", string(side))
	q.Set("type", "LIMIT")
	q.Set("timeInForce", "GTC")
	q.Set("quantity", formatQty(qty))
	q.Set("price", formatQty(price))

	body, err := c.do(ctx, http.MethodPost, path, q, true)
	if err != nil {
		return model.Order{}, err
	}

	var order model.Order
	if len(body) > 0 {
		if err := json.Unmarshal(body, &order); err != nil {
			return model.Order{}, &model.TransientError{Op: "place order", Err: err}
		}
	}
	// The test endpoint answers {} — synthesize the echo fields.
	if order.Symbol == "" {
		order.Symbol = symbol
		order.Side = side
		order.Price = price
		order.Qty = qty
	}
	order.CreatedAt = c.now()
	return order, nil
}

// OpenOrders returns all currently open orders for the symbol.
func (c *Client) OpenOrders(ctx context.Context, symbol string) ([]model.Order, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	body, err := c.get(ctx, "/api/v3/openOrders", q, true)
	if err != nil {
		return nil, err
	}

	var orders []model.Order
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, &model.TransientError{Op: "open orders", Err: err}
	}
	return orders, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, signed bool) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, q, signed)
}

// do issues one REST call. Signed requests get a timestamp and an HMAC-SHA256
// signature over the final query string, plus the API key header.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, signed bool) ([]byte, error) {
	op := method + " " + path

	query := q.Encode()
	if signed {
		query += "&timestamp=" + strconv.FormatInt(c.now().UnixMilli(), 10)
		query += "&signature=" + c.sign(query)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+query, nil)
	if err != nil {
		return nil, &model.TransientError{Op: op, Err: err}
	}
	if signed {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &model.TransientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.TransientError{Op: op, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		// Rejections arrive as {"code":-1121,"msg":"Invalid symbol."}
		var e struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		if json.Unmarshal(body, &e) == nil && e.Code != 0 {
			return nil, &model.ExchangeError{Op: op, Code: e.Code, Message: e.Msg}
		}
		return nil, &model.ExchangeError{Op: op, Code: resp.StatusCode, Message: string(body)}
	}
	return body, nil
}

func (c *Client) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
