// Package health serves gRPC health checks for the storefront agent.
//
// The overall status ("") is SERVING while the agent runs. The cart
// service reports SERVING only while its sync session is signed in and the
// last server call succeeded.
package health

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/luther0929/Fake-Store/cart"
)

// CartService is the health service name for cart sync.
const CartService = "storefront.cart"

// DefaultInterval is how often cart status is polled.
const DefaultInterval = 5 * time.Second

// StatusSource reports cart sync status.
type StatusSource interface {
	Status() cart.SyncStatus
}

// Options configures the health server.
type Options struct {
	// Addr is "host:port" for TCP or "unix:/path" for a socket.
	Addr             string
	EnableReflection bool
	Interval         time.Duration
	Logger           *zap.Logger
}

// Server is a gRPC server exposing grpc.health.v1.
type Server struct {
	grpc     *grpc.Server
	health   *grpchealth.Server
	listener net.Listener
	interval time.Duration
	logger   *zap.Logger
}

// Listen parses addr into a network and address and opens a listener.
func Listen(addr string) (net.Listener, error) {
	network, address := "tcp", addr
	if rest, ok := strings.CutPrefix(addr, "unix:"); ok {
		network, address = "unix", rest
	}
	lis, err := net.Listen(network, address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return lis, nil
}

// New opens the listener and registers the health service.
func New(opts Options) (*Server, error) {
	lis, err := Listen(opts.Addr)
	if err != nil {
		return nil, err
	}
	return NewWithListener(lis, opts), nil
}

// NewWithListener registers the health service on an existing listener.
func NewWithListener(lis net.Listener, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	gs := grpc.NewServer()
	hs := grpchealth.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(CartService, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	if opts.EnableReflection {
		reflection.Register(gs)
	}

	return &Server{
		grpc:     gs,
		health:   hs,
		listener: lis,
		interval: interval,
		logger:   logger,
	}
}

// Addr returns the address the server listens on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// StatusFor maps a sync status to a health status.
func StatusFor(st cart.SyncStatus) grpc_health_v1.HealthCheckResponse_ServingStatus {
	if st.Authenticated && st.LastError == nil {
		return grpc_health_v1.HealthCheckResponse_SERVING
	}
	return grpc_health_v1.HealthCheckResponse_NOT_SERVING
}

// Update sets the cart service status from src once.
func (s *Server) Update(src StatusSource) {
	st := src.Status()
	status := StatusFor(st)
	s.health.SetServingStatus(CartService, status)
	if st.LastError != nil {
		s.logger.Debug("cart sync unhealthy",
			zap.String("session", st.SessionID),
			zap.Error(st.LastError))
	}
}

// Run serves until ctx is done, polling src for cart status when src is
// non-nil. On return every service reports NOT_SERVING.
func (s *Server) Run(ctx context.Context, src StatusSource) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("health server listening", zap.String("addr", s.listener.Addr().String()))
		errCh <- s.grpc.Serve(s.listener)
	}()

	var tick <-chan time.Time
	if src != nil {
		s.Update(src)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down health server")
			s.health.Shutdown()
			s.grpc.GracefulStop()
			return nil
		case err := <-errCh:
			return err
		case <-tick:
			s.Update(src)
		}
	}
}
