package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// StatusOK is the envelope status of a successful response.
const StatusOK = "OK"

type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ID is an identifier the backend may encode as a JSON number or string.
type ID string

// UnmarshalJSON accepts numbers, strings and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("id: %w", err)
		}
		*id = ID(n.String())
	}
	return nil
}

// Flag is a boolean the backend stores as 0 or 1.
type Flag bool

// MarshalJSON encodes the flag as 0 or 1.
func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// UnmarshalJSON accepts 0/1, booleans, numeric strings and null.
func (f *Flag) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	switch s {
	case "true":
		*f = true
	case "false", "null", "":
		*f = false
	default:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("flag: %w", err)
		}
		*f = n != 0
	}
	return nil
}

// User is the account returned by sign-in and sign-up.
type User struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResult is a signed-in user and its session token.
type AuthResult struct {
	User  User
	Token string
}

// CartLine is the server's shape of a cart item.
//
// The server names the quantity field "count".
type CartLine struct {
	ID    int     `json:"id"`
	Price float64 `json:"price"`
	Count int     `json:"count"`
}

// OrderLine is one item of an order-creation request.
type OrderLine struct {
	ProductID int     `json:"prodID"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// OrderAck acknowledges a created order.
//
// OrderID is empty when the server does not report one.
type OrderAck struct {
	OrderID ID
	Message string
}

// Order is a placed order as listed by the server.
type Order struct {
	ID          int        `json:"id"`
	IsPaid      Flag       `json:"is_paid"`
	IsDelivered Flag       `json:"is_delivered"`
	Items       OrderItems `json:"order_items"`
	ItemNumbers int        `json:"item_numbers"`
	// TotalPrice is in cents.
	TotalPrice int64 `json:"total_price"`
}

// OrderItems decodes order_items, which the server sends either as a JSON
// array or as a string containing one.
type OrderItems []OrderLine

type rawOrderLine struct {
	ProductID json.Number `json:"prodID"`
	Price     json.Number `json:"price"`
	Quantity  json.Number `json:"quantity"`
}

// UnmarshalJSON decodes either encoding. Unparseable content decodes to no
// items rather than failing the whole order list.
func (items *OrderItems) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			*items = nil
			return nil
		}
		data = []byte(inner)
	}

	var raw []rawOrderLine
	if err := json.Unmarshal(data, &raw); err != nil {
		*items = nil
		return nil
	}

	out := make(OrderItems, 0, len(raw))
	for _, r := range raw {
		id, _ := r.ProductID.Int64()
		price, _ := r.Price.Float64()
		qty, _ := r.Quantity.Int64()
		out = append(out, OrderLine{ProductID: int(id), Price: price, Quantity: int(qty)})
	}
	*items = out
	return nil
}
