package api

import (
	"context"
	"net/http"
)

type cartBody struct {
	Items []CartLine `json:"items"`
}

// GetCart returns the server's cart for the session.
func (c *Client) GetCart(ctx context.Context, token string) ([]CartLine, error) {
	if err := requireToken(OpGetCart, token); err != nil {
		return nil, err
	}
	var resp cartBody
	if err := c.do(ctx, OpGetCart, http.MethodGet, PathCart, token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		return []CartLine{}, nil
	}
	return resp.Items, nil
}

// UpdateCart replaces the server's cart with lines.
func (c *Client) UpdateCart(ctx context.Context, token string, lines []CartLine) error {
	if err := requireToken(OpUpdateCart, token); err != nil {
		return err
	}
	if lines == nil {
		lines = []CartLine{}
	}
	return c.do(ctx, OpUpdateCart, http.MethodPut, PathCart, token, cartBody{Items: lines}, nil)
}
