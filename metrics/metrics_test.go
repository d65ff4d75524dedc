package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCartMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)

	m.Observe(OpPush, nil, 10*time.Millisecond)
	m.Observe(OpPush, errors.New("boom"), time.Millisecond)
	m.Observe(OpFetch, nil, time.Millisecond)

	if got := testutil.ToFloat64(m.Requests.WithLabelValues(OpPush, "ok")); got != 1 {
		t.Errorf("push ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues(OpPush, "error")); got != 1 {
		t.Errorf("push error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues(OpFetch, "ok")); got != 1 {
		t.Errorf("fetch ok = %v, want 1", got)
	}
}

func TestCartMetrics_Gauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)

	m.SetItems(3)
	m.SetPending(true)
	if got := testutil.ToFloat64(m.CartItems); got != 3 {
		t.Errorf("items = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.Pending); got != 1 {
		t.Errorf("pending = %v, want 1", got)
	}
	m.SetPending(false)
	if got := testutil.ToFloat64(m.Pending); got != 0 {
		t.Errorf("pending = %v, want 0", got)
	}
}

func TestCartMetrics_Nil(t *testing.T) {
	var m *CartMetrics
	m.Observe(OpPush, nil, time.Second)
	m.SetItems(1)
	m.SetPending(true)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)
	m.Observe(OpCheckout, nil, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `storefront_cart_requests_total{op="checkout",outcome="ok"} 1`) {
		t.Errorf("metrics output missing checkout counter:\n%s", body)
	}
}
