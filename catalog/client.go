// Package catalog reads the product catalog from the Fake Store API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the public Fake Store API.
const DefaultBaseURL = "https://fakestoreapi.com"

// Rating is the catalog's display-only review summary.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product is one catalog entry.
type Product struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Rating      Rating  `json:"rating"`
}

// FetchError reports a non-2xx catalog response.
type FetchError struct {
	Resource   string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("Error fetching %s data: %d", e.Resource, e.StatusCode)
}

// Client fetches catalog data over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a catalog client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Products lists every product.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.get(ctx, "/products", "product", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Categories lists the category names.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.get(ctx, "/products/categories", "category", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Product fetches a single product by id.
func (c *Client) Product(ctx context.Context, id int) (Product, error) {
	var p Product
	if err := c.get(ctx, "/products/"+strconv.Itoa(id), "product", &p); err != nil {
		return Product{}, err
	}
	if p.ID == 0 {
		return Product{}, &FetchError{Resource: "product", StatusCode: http.StatusNotFound}
	}
	return p, nil
}

func (c *Client) get(ctx context.Context, path, resource string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("catalog request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("fetch %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{Resource: resource, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", resource, err)
	}
	c.logger.Debug("catalog request completed", zap.String("path", path))
	return nil
}
