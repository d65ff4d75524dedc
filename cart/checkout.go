package cart

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/luther0929/Fake-Store/api"
	"github.com/luther0929/Fake-Store/metrics"
)

// OrderCreator places orders. *api.Client implements it.
type OrderCreator interface {
	CreateOrder(ctx context.Context, token string, lines []api.OrderLine) (*api.OrderAck, error)
}

// OrderResult describes a placed order.
type OrderResult struct {
	// OrderID is empty when the server did not report one.
	OrderID       api.ID
	Message       string
	TotalPrice    float64
	TotalQuantity int
}

// Checkout places an order for the cart in store.
//
// An empty cart fails with ErrEmptyCart and a missing token with
// ErrTokenRequired, both before any request is made. When the order is
// accepted the ordered units leave the cart; edits made while the order was
// in flight stay. When it is not, the items are left as they were and the
// error is recorded in LastError. Checkout never retries.
func Checkout(ctx context.Context, store *Store, creator OrderCreator, token string) (OrderResult, error) {
	snap := store.Snapshot()
	if snap.IsEmpty() {
		return OrderResult{}, ErrEmptyCart
	}
	if token == "" {
		return OrderResult{}, ErrTokenRequired
	}

	lines := make([]api.OrderLine, len(snap.Items))
	for i, it := range snap.Items {
		lines[i] = api.OrderLine{ProductID: it.ID, Price: it.Price, Quantity: it.Quantity}
	}

	start := time.Now()
	ack, err := creator.CreateOrder(ctx, token, lines)
	store.metrics.Observe(metrics.OpCheckout, err, time.Since(start))
	if err != nil {
		store.logger.Warn("checkout failed", zap.Int("lines", len(lines)), zap.Error(err))
		store.recordCheckoutFailure(err)
		return OrderResult{}, err
	}

	store.settleOrder(snap)
	result := OrderResult{
		OrderID:       ack.OrderID,
		Message:       ack.Message,
		TotalPrice:    snap.TotalPrice,
		TotalQuantity: snap.TotalQuantity,
	}
	store.logger.Info("order placed",
		zap.String("order_id", string(result.OrderID)),
		zap.Int("quantity", result.TotalQuantity),
		zap.Float64("total", result.TotalPrice),
	)
	return result, nil
}
