// Package metrics exposes Prometheus collectors for cart sync and checkout.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Operation labels.
const (
	OpFetch    = "fetch"
	OpPush     = "push"
	OpCheckout = "checkout"
)

// CartMetrics records cart network outcomes. A nil *CartMetrics is valid and
// records nothing.
type CartMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
	CartItems prometheus.Gauge
	Pending   prometheus.Gauge
}

// NewCartMetrics creates the collectors and registers them with reg.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cart",
		Name:      "requests_total",
		Help:      "Total number of cart network operations.",
	}, []string{"op", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "cart",
		Name:      "request_duration_ms",
		Help:      "Cart operation latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 15000},
	}, []string{"op"})
	items := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "cart",
		Name:      "items",
		Help:      "Total quantity currently in the cart.",
	})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "cart",
		Name:      "push_pending",
		Help:      "1 while a debounced push is scheduled.",
	})

	reg.MustRegister(requests, latency, items, pending)
	return &CartMetrics{Requests: requests, LatencyMS: latency, CartItems: items, Pending: pending}
}

// Observe records one operation.
func (m *CartMetrics) Observe(op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Requests.WithLabelValues(op, outcome).Inc()
	m.LatencyMS.WithLabelValues(op).Observe(float64(elapsed.Milliseconds()))
}

// SetItems records the cart's total quantity.
func (m *CartMetrics) SetItems(quantity int) {
	if m == nil {
		return
	}
	m.CartItems.Set(float64(quantity))
}

// SetPending records whether a push is scheduled.
func (m *CartMetrics) SetPending(pending bool) {
	if m == nil {
		return
	}
	if pending {
		m.Pending.Set(1)
	} else {
		m.Pending.Set(0)
	}
}

// Handler serves the collectors registered with g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
