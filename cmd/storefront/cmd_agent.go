package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/luther0929/Fake-Store/health"
	"github.com/luther0929/Fake-Store/metrics"
)

func newAgentCmd(a *app) *cobra.Command {
	var refresh time.Duration
	var reflection bool
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Keep the cart session alive and serve health and metrics",
		Long: `agent signs in with the stored token and keeps the cart in sync,
reloading the server cart every --refresh. It serves grpc.health.v1 on
agent.health_addr (service "storefront.cart") and Prometheus metrics on
agent.metrics_addr until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)
			return a.runAgent(cmd, refresh, reflection)
		},
	}
	cmd.Flags().DurationVar(&refresh, "refresh", time.Minute, "how often to reload the server cart")
	cmd.Flags().BoolVar(&reflection, "reflection", false, "enable gRPC server reflection")
	return cmd
}

func (a *app) runAgent(cmd *cobra.Command, refresh time.Duration, reflection bool) error {
	if refresh <= 0 {
		return fmt.Errorf("--refresh must be positive, got %s", refresh)
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewCartMetrics(reg)

	cs, err := a.openCart(cmd, m)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.API.Timeout)
		defer cancel()
		if err := cs.close(ctx); err != nil {
			a.logger.Warn("final cart save failed", zap.Error(err))
		}
	}()

	hs, err := health.New(health.Options{
		Addr:             a.cfg.Agent.HealthAddr,
		EnableReflection: reflection,
		Logger:           a.logger.Named("health"),
	})
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	metricsSrv := &http.Server{
		Addr:              a.cfg.Agent.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Agent running: health %s, metrics %s\n", hs.Addr(), metricsSrv.Addr)

	g, gctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return hs.Run(gctx, cs.syncer)
	})
	g.Go(func() error {
		a.logger.Info("metrics server listening", zap.String("addr", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(refresh)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := cs.syncer.Flush(gctx); err != nil {
					a.logger.Warn("cart push failed", zap.Error(err))
					continue
				}
				if err := cs.syncer.Reload(gctx); err != nil {
					a.logger.Warn("cart reload failed", zap.Error(err))
				}
			}
		}
	})
	return g.Wait()
}
