package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luther0929/Fake-Store/api"
	"github.com/luther0929/Fake-Store/catalog"
	"github.com/luther0929/Fake-Store/metrics"
)

// ChangeKind says what produced a Change.
type ChangeKind int

const (
	ChangeAdd ChangeKind = iota
	ChangeRemove
	ChangeClear
	ChangeFetch
	ChangePush
	ChangeLoading
	ChangeReset
	ChangeCheckout
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdd:
		return "add"
	case ChangeRemove:
		return "remove"
	case ChangeClear:
		return "clear"
	case ChangeFetch:
		return "fetch"
	case ChangePush:
		return "push"
	case ChangeLoading:
		return "loading"
	case ChangeReset:
		return "reset"
	case ChangeCheckout:
		return "checkout"
	default:
		return "unknown"
	}
}

// IsLocal reports whether the change is a user edit that the server has not
// seen yet.
func (k ChangeKind) IsLocal() bool {
	return k == ChangeAdd || k == ChangeRemove || k == ChangeClear
}

// Change is delivered to subscribers after every store update.
type Change struct {
	Kind  ChangeKind
	State State
}

// CartAPI is the server side of the cart. *api.Client implements it.
type CartAPI interface {
	GetCart(ctx context.Context, token string) ([]api.CartLine, error)
	UpdateCart(ctx context.Context, token string, lines []api.CartLine) error
}

// Store owns the cart state of one session.
//
// Mutations are applied one at a time and subscribers see them in the same
// order. Fetch and Push hold a network lock for their whole round trip, so
// they never overlap: whichever starts first completes first.
type Store struct {
	client  CartAPI
	logger  *zap.Logger
	metrics *metrics.CartMetrics

	mu       sync.Mutex
	state    State
	inflight int
	subs     map[int]func(Change)
	nextSub  int

	// notifyMu is held across mutation and notification so subscribers see
	// changes in mutation order. It is always taken before mu.
	notifyMu sync.Mutex

	netMu sync.Mutex
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithMetrics records fetch, push and checkout outcomes.
func WithMetrics(m *metrics.CartMetrics) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore creates an empty cart backed by client.
func NewStore(client CartAPI, opts ...StoreOption) *Store {
	s := &Store{
		client: client,
		logger: zap.NewNop(),
		subs:   make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state. The returned value shares nothing
// mutable with the store.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Items = s.state.cloneItems()
	return st
}

// Subscribe registers fn for every subsequent change and returns a function
// that removes it. fn runs synchronously on the mutating goroutine. It may
// call Snapshot but must not mutate the store.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Add adds one unit of product and returns the new state.
func (s *Store) Add(product catalog.Product) State {
	return s.update(ChangeAdd, func(st State) State { return AddItem(st, product) })
}

// Remove removes one unit of product and returns the new state.
func (s *Store) Remove(product catalog.Product) State {
	return s.update(ChangeRemove, func(st State) State { return RemoveItem(st, product) })
}

// Clear empties the cart. Subscribers treat it as a user edit.
func (s *Store) Clear() State {
	return s.update(ChangeClear, Clear)
}

// Reset empties the cart and forgets the last error without marking the
// cart as edited. It is used when a session ends.
func (s *Store) Reset() State {
	return s.update(ChangeReset, func(st State) State {
		st = Clear(st)
		st.LastError = nil
		return st
	})
}

// Fetch replaces the cart with the server's copy.
//
// On failure the items are left alone and the error is recorded in
// LastError and returned.
func (s *Store) Fetch(ctx context.Context, token string) error {
	if token == "" {
		return ErrTokenRequired
	}
	s.netMu.Lock()
	defer s.netMu.Unlock()

	s.begin()
	start := time.Now()
	lines, err := s.client.GetCart(ctx, token)
	s.metrics.Observe(metrics.OpFetch, err, time.Since(start))

	if err != nil {
		s.logger.Warn("cart fetch failed", zap.Error(err))
		s.end(ChangeFetch, func(st State) State {
			st.LastError = err
			return st
		})
		return err
	}

	raw := make([]RawLine, len(lines))
	for i, l := range lines {
		raw[i] = RawLine{ID: l.ID, Price: l.Price, Quantity: l.Count}
	}
	st := s.end(ChangeFetch, func(st State) State {
		st = st.withItems(fromServer(raw))
		st.LastError = nil
		return st
	})
	s.logger.Debug("cart fetched",
		zap.Int("lines", len(st.Items)),
		zap.Int("quantity", st.TotalQuantity),
	)
	return nil
}

// Push sends the current items to the server.
//
// The items are read once the network lock is held, so the push carries the
// state at the moment it goes out. On failure the local cart is kept as is.
func (s *Store) Push(ctx context.Context, token string) error {
	if token == "" {
		return ErrTokenRequired
	}
	s.netMu.Lock()
	defer s.netMu.Unlock()

	snap := s.begin()
	lines := make([]api.CartLine, len(snap.Items))
	for i, it := range snap.Items {
		lines[i] = api.CartLine{ID: it.ID, Price: it.Price, Count: it.Quantity}
	}

	start := time.Now()
	err := s.client.UpdateCart(ctx, token, lines)
	s.metrics.Observe(metrics.OpPush, err, time.Since(start))

	s.end(ChangePush, func(st State) State {
		st.LastError = err
		return st
	})
	if err != nil {
		s.logger.Warn("cart push failed", zap.Int("lines", len(lines)), zap.Error(err))
		return err
	}
	s.logger.Debug("cart pushed", zap.Int("lines", len(lines)))
	return nil
}

// settleOrder removes the units of ordered from the cart. Edits made since
// ordered was taken are kept, so an unchanged cart ends up empty.
func (s *Store) settleOrder(ordered State) State {
	return s.update(ChangeClear, func(st State) State {
		items := make([]LineItem, 0, len(st.Items))
		for _, it := range st.Items {
			if o, ok := ordered.Item(it.ID); ok {
				it.Quantity -= o.Quantity
			}
			if it.Quantity > 0 {
				items = append(items, it)
			}
		}
		st = st.withItems(items)
		st.LastError = nil
		return st
	})
}

// recordCheckoutFailure keeps the items and records err.
func (s *Store) recordCheckoutFailure(err error) {
	s.update(ChangeCheckout, func(st State) State {
		st.LastError = err
		return st
	})
}

// begin marks a network operation in flight and returns the state it
// starts from.
func (s *Store) begin() State {
	var snap State
	s.update(ChangeLoading, func(st State) State {
		s.inflight++
		st.IsLoading = true
		snap = st
		return st
	})
	return snap
}

// end applies the operation's result and clears the loading flag when no
// other operation is in flight.
func (s *Store) end(kind ChangeKind, apply func(State) State) State {
	return s.update(kind, func(st State) State {
		s.inflight--
		st = apply(st)
		st.IsLoading = s.inflight > 0
		return st
	})
}

// update applies fn under the lock and notifies subscribers in order.
func (s *Store) update(kind ChangeKind, fn func(State) State) State {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.state = fn(s.state)
	current := s.state
	current.Items = s.state.cloneItems()
	subs := make([]func(Change), 0, len(s.subs))
	for id := 0; id < s.nextSub; id++ {
		if sub, ok := s.subs[id]; ok {
			subs = append(subs, sub)
		}
	}
	s.mu.Unlock()

	if kind != ChangeLoading {
		s.metrics.SetItems(current.TotalQuantity)
	}
	for _, sub := range subs {
		sub(Change{Kind: kind, State: current})
	}
	return current
}
