package model

import "time"

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Order represents an exchange order as seen by the decision core.
// Code/Message are populated when the exchange rejects the request.
type Order struct {
	Symbol    string    `json:"symbol"`
	OrderID   int64     `json:"orderId"`
	Side      Side      `json:"side"`
	Price     float64   `json:"price,string"`
	Qty       float64   `json:"origQty,string"`
	Status    string    `json:"status"` // NEW, FILLED, CANCELED, REJECTED
	Code      int       `json:"code,omitempty"`
	Message   string    `json:"msg,omitempty"`
	CreatedAt time.Time `json:"-"`
}

// Rejected reports whether the exchange answered with an error envelope
// instead of a booked order.
func (o *Order) Rejected() bool {
	return o.Code != 0
}
