package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBaseURL is the backend address used when none is configured.
const DefaultBaseURL = "http://localhost:3000"

// DefaultTimeout bounds a single request. It matches the point at which the
// client reports a call as taking too long.
const DefaultTimeout = 15 * time.Second

// HeaderRequestID carries a per-request identifier for server-side tracing.
const HeaderRequestID = "X-Request-Id"

const maxResponseBytes = 4 << 20

// Endpoint paths.
const (
	PathSignUp      = "/users/signup"
	PathSignIn      = "/users/signin"
	PathUpdateUser  = "/users/update"
	PathCart        = "/cart"
	PathOrders      = "/orders/all"
	PathNewOrder    = "/orders/neworder"
	PathUpdateOrder = "/orders/updateorder"
)

// Operation names, used in errors and logs.
const (
	OpSignUp        = "sign up"
	OpSignIn        = "sign in"
	OpUpdateProfile = "update profile"
	OpGetCart       = "get cart"
	OpUpdateCart    = "update cart"
	OpGetOrders     = "get orders"
	OpCreateOrder   = "create order"
	OpUpdateOrder   = "update order"
)

// Fallback messages for rejections that carry no message of their own.
var defaultMessages = map[string]string{
	OpSignUp:        "Failed to register user",
	OpSignIn:        "Failed to sign in",
	OpUpdateProfile: "Failed to update profile",
	OpGetCart:       "Failed to fetch cart",
	OpUpdateCart:    "Failed to update cart",
	OpGetOrders:     "Failed to fetch orders",
	OpCreateOrder:   "Failed to create order",
	OpUpdateOrder:   "Failed to update order status",
}

// Client talks to the storefront backend.
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

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d, Transport: c.httpClient.Transport}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, InvalidArgumentError("connect", "invalid base URL: "+baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ClientFromEnv creates a client using an environment variable with fallback.
func ClientFromEnv(envVar, defaultBaseURL string, opts ...Option) (*Client, error) {
	baseURL := os.Getenv(envVar)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return NewClient(baseURL, opts...)
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends one request and decodes the envelope into out.
func (c *Client) do(ctx context.Context, op, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return InvalidArgumentError(op, "cannot encode request: "+err.Error())
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return TransportError(op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set(HeaderRequestID, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return TransportError(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return TransportError(op, err)
	}

	c.logger.Debug("request completed",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("http_status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("elapsed", time.Since(start)),
	)

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		if resp.StatusCode >= 400 {
			return StatusError(op, resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return DecodeError(op, err)
	}
	if env.Status != StatusOK {
		msg := env.Message
		if msg == "" {
			msg = defaultMessages[op]
		}
		return StatusError(op, resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return DecodeError(op, err)
		}
	}
	return nil
}

func requireToken(op, token string) error {
	if token == "" {
		return InvalidArgumentError(op, "session token is required")
	}
	return nil
}
