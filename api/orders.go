package api

import (
	"context"
	"net/http"
)

type ordersResponse struct {
	Orders []Order `json:"orders"`
}

type createOrderRequest struct {
	Items []OrderLine `json:"items"`
}

type createOrderResponse struct {
	Message string `json:"message"`
	OrderID ID     `json:"orderID"`
	ID      ID     `json:"id"`
}

type updateOrderRequest struct {
	OrderID     int  `json:"orderID"`
	IsPaid      Flag `json:"isPaid"`
	IsDelivered Flag `json:"isDelivered"`
}

// GetOrders lists the session's orders.
func (c *Client) GetOrders(ctx context.Context, token string) ([]Order, error) {
	if err := requireToken(OpGetOrders, token); err != nil {
		return nil, err
	}
	var resp ordersResponse
	if err := c.do(ctx, OpGetOrders, http.MethodGet, PathOrders, token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Orders == nil {
		return []Order{}, nil
	}
	return resp.Orders, nil
}

// CreateOrder places an order for lines.
func (c *Client) CreateOrder(ctx context.Context, token string, lines []OrderLine) (*OrderAck, error) {
	if err := requireToken(OpCreateOrder, token); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, InvalidArgumentError(OpCreateOrder, "order has no items")
	}
	var resp createOrderResponse
	if err := c.do(ctx, OpCreateOrder, http.MethodPost, PathNewOrder, token, createOrderRequest{Items: lines}, &resp); err != nil {
		return nil, err
	}
	ack := &OrderAck{OrderID: resp.OrderID, Message: resp.Message}
	if ack.OrderID == "" {
		ack.OrderID = resp.ID
	}
	return ack, nil
}

// UpdateOrder sets the paid and delivered flags of an order.
func (c *Client) UpdateOrder(ctx context.Context, token string, orderID int, paid, delivered bool) error {
	if err := requireToken(OpUpdateOrder, token); err != nil {
		return err
	}
	body := updateOrderRequest{OrderID: orderID, IsPaid: Flag(paid), IsDelivered: Flag(delivered)}
	return c.do(ctx, OpUpdateOrder, http.MethodPost, PathUpdateOrder, token, body, nil)
}
