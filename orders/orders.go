// Package orders tracks the signed-in user's orders.
package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/luther0929/Fake-Store/api"
	"github.com/luther0929/Fake-Store/catalog"
	"github.com/luther0929/Fake-Store/money"
	"github.com/luther0929/Fake-Store/textutil"
)

// ErrNotPaid rejects delivering an order that has not been paid.
var ErrNotPaid = errors.New("Order has not been paid")

// Status is an order's position in the New, Paid, Delivered flow.
type Status int

const (
	StatusNew Status = iota
	StatusPaid
	StatusDelivered
	// StatusInvalid is delivered but unpaid, which the flow never produces.
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "New Orders"
	case StatusPaid:
		return "Paid Orders"
	case StatusDelivered:
		return "Delivered Orders"
	default:
		return "Invalid Orders"
	}
}

// StatusOf classifies o by its flags.
func StatusOf(o api.Order) Status {
	switch {
	case !bool(o.IsPaid) && !bool(o.IsDelivered):
		return StatusNew
	case bool(o.IsPaid) && !bool(o.IsDelivered):
		return StatusPaid
	case bool(o.IsPaid) && bool(o.IsDelivered):
		return StatusDelivered
	default:
		return StatusInvalid
	}
}

// Groups buckets orders by status, keeping server order within each bucket.
type Groups struct {
	New       []api.Order
	Paid      []api.Order
	Delivered []api.Order
}

// Summary is the item count and amount shown for an order.
type Summary struct {
	TotalItems  int
	TotalAmount float64
}

// Summarize totals o from its items, falling back to the server's
// item_numbers and total_price when the items could not be read.
func Summarize(o api.Order) Summary {
	if len(o.Items) == 0 {
		return Summary{TotalItems: o.ItemNumbers, TotalAmount: money.FromCents(o.TotalPrice)}
	}
	var acc money.Accumulator
	n := 0
	for _, it := range o.Items {
		acc.Add(it.Price, it.Quantity)
		n += it.Quantity
	}
	if n == 0 {
		n = o.ItemNumbers
	}
	return Summary{TotalItems: n, TotalAmount: acc.Total()}
}

// ItemView is one order line ready to show.
type ItemView struct {
	Name     string
	Image    string
	Quantity int
	Price    float64
	Subtotal float64
}

// Items resolves the lines of o against cat. Lines are matched by product
// id, then by price for rows that carry no id.
func Items(o api.Order, cat *catalog.Catalog) []ItemView {
	views := make([]ItemView, 0, len(o.Items))
	for i, it := range o.Items {
		v := ItemView{
			Name:     fmt.Sprintf("Item #%d", i+1),
			Quantity: it.Quantity,
			Price:    it.Price,
			Subtotal: money.LineTotal(it.Price, it.Quantity),
		}
		if cat != nil {
			p, ok := cat.Product(it.ProductID)
			if !ok {
				p, ok = cat.FindByPrice(it.Price)
			}
			if ok {
				v.Name = textutil.FirstThreeWords(p.Title)
				v.Image = p.Image
			}
		}
		views = append(views, v)
	}
	return views
}

// OrdersAPI is the server side of orders. *api.Client implements it.
type OrdersAPI interface {
	GetOrders(ctx context.Context, token string) ([]api.Order, error)
	UpdateOrder(ctx context.Context, token string, orderID int, paid, delivered bool) error
}

// Book holds the order list and the new-order badge count.
type Book struct {
	client OrdersAPI
	logger *zap.Logger

	mu        sync.Mutex
	orders    []api.Order
	newCount  int
	isLoading bool
	lastErr   error
}

// NewBook creates an empty book.
func NewBook(client OrdersAPI, logger *zap.Logger) *Book {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Book{client: client, logger: logger}
}

// Load replaces the order list with the server's.
func (b *Book) Load(ctx context.Context, token string) error {
	b.begin()
	orders, err := b.client.GetOrders(ctx, token)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.isLoading = false
	if err != nil {
		b.lastErr = err
		b.logger.Warn("orders load failed", zap.Error(err))
		return err
	}
	b.orders = orders
	b.recountLocked()
	b.logger.Debug("orders loaded", zap.Int("orders", len(orders)), zap.Int("new", b.newCount))
	return nil
}

// MarkPaid records payment for order id.
func (b *Book) MarkPaid(ctx context.Context, token string, id int) error {
	return b.update(ctx, token, id, true, false)
}

// MarkDelivered records delivery for order id. A known unpaid order is
// rejected with ErrNotPaid.
func (b *Book) MarkDelivered(ctx context.Context, token string, id int) error {
	b.mu.Lock()
	for _, o := range b.orders {
		if o.ID == id && !o.IsPaid {
			b.mu.Unlock()
			return ErrNotPaid
		}
	}
	b.mu.Unlock()
	return b.update(ctx, token, id, true, true)
}

func (b *Book) update(ctx context.Context, token string, id int, paid, delivered bool) error {
	b.begin()
	err := b.client.UpdateOrder(ctx, token, id, paid, delivered)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.isLoading = false
	if err != nil {
		b.lastErr = err
		b.logger.Warn("order update failed", zap.Int("order_id", id), zap.Error(err))
		return err
	}
	for i := range b.orders {
		if b.orders[i].ID == id {
			b.orders[i].IsPaid = api.Flag(paid)
			b.orders[i].IsDelivered = api.Flag(delivered)
		}
	}
	b.recountLocked()
	return nil
}

func (b *Book) begin() {
	b.mu.Lock()
	b.isLoading = true
	b.lastErr = nil
	b.mu.Unlock()
}

func (b *Book) recountLocked() {
	n := 0
	for _, o := range b.orders {
		if StatusOf(o) == StatusNew {
			n++
		}
	}
	b.newCount = n
}

// Placed bumps the badge count after a successful checkout, before the list
// is reloaded.
func (b *Book) Placed() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.newCount++
}

// NewOrdersCount is the number of unpaid, undelivered orders.
func (b *Book) NewOrdersCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.newCount
}

// ClearCount resets the badge count.
func (b *Book) ClearCount() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.newCount = 0
}

// Orders returns a copy of the order list.
func (b *Book) Orders() []api.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.Order(nil), b.orders...)
}

// Groups buckets the order list by status. Orders in StatusInvalid are left
// out.
func (b *Book) Groups() Groups {
	b.mu.Lock()
	defer b.mu.Unlock()
	var g Groups
	for _, o := range b.orders {
		switch StatusOf(o) {
		case StatusNew:
			g.New = append(g.New, o)
		case StatusPaid:
			g.Paid = append(g.Paid, o)
		case StatusDelivered:
			g.Delivered = append(g.Delivered, o)
		}
	}
	return g
}

// IsLoading reports whether a request is in flight.
func (b *Book) IsLoading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.isLoading
}

// LastError returns the last request failure, or nil.
func (b *Book) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// ClearError forgets the last failure.
func (b *Book) ClearError() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastErr = nil
}

// Reset empties the book when a session ends.
func (b *Book) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders = nil
	b.newCount = 0
	b.isLoading = false
	b.lastErr = nil
}
