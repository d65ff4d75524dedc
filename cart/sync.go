package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luther0929/Fake-Store/metrics"
)

// DefaultPushWindow is the quiet period after the last edit before the cart
// is pushed.
const DefaultPushWindow = time.Second

// SyncStatus describes a Syncer at a point in time.
type SyncStatus struct {
	SessionID     string
	Authenticated bool
	Loaded        bool
	Pending       bool
	Pushing       bool
	LastError     error
	LastSync      time.Time
}

// Syncer decides when a Store talks to the server.
//
// It fetches once per session when a token arrives, and pushes local edits
// after a quiet window. Only one push is in flight at a time; an edit that
// lands during a push is sent by a follow-up push once the first settles.
type Syncer struct {
	store   *Store
	window  time.Duration
	logger  *zap.Logger
	metrics *metrics.CartMetrics

	ctx    context.Context
	cancel context.CancelFunc
	unsub  func()
	wg     sync.WaitGroup

	mu        sync.Mutex
	token     string
	sessionID string
	loaded    bool
	timer     *time.Timer
	timerGen  uint64
	pending   bool
	pushing   bool
	again     bool
	closed    bool
	lastErr   error
	lastSync  time.Time
}

// SyncOption configures a Syncer.
type SyncOption func(*Syncer)

// WithPushWindow sets the debounce window.
func WithPushWindow(d time.Duration) SyncOption {
	return func(s *Syncer) {
		s.window = d
	}
}

// WithSyncLogger sets the syncer logger.
func WithSyncLogger(logger *zap.Logger) SyncOption {
	return func(s *Syncer) {
		s.logger = logger
	}
}

// WithSyncMetrics records the pending-push gauge.
func WithSyncMetrics(m *metrics.CartMetrics) SyncOption {
	return func(s *Syncer) {
		s.metrics = m
	}
}

// NewSyncer attaches a scheduler to store. Call Close to release it.
func NewSyncer(store *Store, opts ...SyncOption) *Syncer {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Syncer{
		store:  store,
		window: DefaultPushWindow,
		logger: zap.NewNop(),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.unsub = store.Subscribe(s.onChange)
	return s
}

// Authenticate starts or continues a session with token.
//
// The first call for a token fetches the server cart. Repeating the same
// token does nothing, even when that fetch failed; use Reload to retry. A
// different token starts a new session with an empty cart, so a failed
// fetch never leaves the previous session's lines behind. An empty token
// signs out.
func (s *Syncer) Authenticate(ctx context.Context, token string) error {
	if token == "" {
		s.SignOut()
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSyncerClosed
	}
	if token == s.token && s.loaded {
		s.mu.Unlock()
		return nil
	}
	switched := token != s.token
	if switched {
		s.stopTimerLocked()
		s.pending = false
		s.again = false
		s.token = token
		s.sessionID = uuid.NewString()
	}
	s.loaded = true
	sessionID := s.sessionID
	s.mu.Unlock()

	if switched {
		s.store.Reset()
	}

	s.logger.Info("cart session started", zap.String("session_id", sessionID))
	return s.fetch(ctx, token)
}

// Reload fetches the server cart again for the current session.
func (s *Syncer) Reload(ctx context.Context) error {
	s.mu.Lock()
	token, closed := s.token, s.closed
	s.mu.Unlock()

	if closed {
		return ErrSyncerClosed
	}
	if token == "" {
		return ErrNoSession
	}
	return s.fetch(ctx, token)
}

func (s *Syncer) fetch(ctx context.Context, token string) error {
	err := s.store.Fetch(ctx, token)
	s.record(err)
	return err
}

// SignOut ends the session: the token is forgotten, a scheduled push is
// dropped and the cart is emptied without being pushed.
func (s *Syncer) SignOut() {
	s.mu.Lock()
	hadSession := s.token != ""
	s.token = ""
	s.sessionID = ""
	s.loaded = false
	s.again = false
	s.stopTimerLocked()
	s.mu.Unlock()

	s.store.Reset()
	if hadSession {
		s.logger.Info("cart session ended")
	}
}

// Token returns the session token, or "" when signed out.
func (s *Syncer) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Flush pushes pending edits now instead of waiting for the window.
//
// It waits for a push already in flight. Without a session or pending edits
// it returns nil.
func (s *Syncer) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSyncerClosed
	}
	token := s.token
	needed := token != "" && (s.pending || s.pushing || s.timer != nil)
	s.stopTimerLocked()
	s.pending = false
	s.again = false
	s.mu.Unlock()

	if !needed {
		return nil
	}
	err := s.store.Push(ctx, token)
	s.record(err)
	return err
}

// Status reports the scheduler state.
func (s *Syncer) Status() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SyncStatus{
		SessionID:     s.sessionID,
		Authenticated: s.token != "",
		Loaded:        s.loaded,
		Pending:       s.timer != nil,
		Pushing:       s.pushing,
		LastError:     s.lastErr,
		LastSync:      s.lastSync,
	}
}

// Close stops scheduling and waits for any push in flight. Edits not yet
// pushed are dropped; call Flush first to keep them.
func (s *Syncer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopTimerLocked()
	s.mu.Unlock()

	s.unsub()
	s.wg.Wait()
	s.cancel()
}

func (s *Syncer) onChange(c Change) {
	if !c.Kind.IsLocal() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.token == "" {
		return
	}
	s.pending = true
	s.scheduleLocked()
}

// scheduleLocked restarts the debounce timer. Each timer holds one wg count
// until it fires or is stopped.
func (s *Syncer) scheduleLocked() {
	s.stopTimerLocked()
	s.wg.Add(1)
	s.timerGen++
	gen := s.timerGen
	s.timer = time.AfterFunc(s.window, func() { s.fire(gen) })
	s.metrics.SetPending(true)
}

func (s *Syncer) stopTimerLocked() {
	if s.timer == nil {
		return
	}
	if s.timer.Stop() {
		s.wg.Done()
	}
	s.timer = nil
	s.metrics.SetPending(false)
}

func (s *Syncer) fire(gen uint64) {
	defer s.wg.Done()

	s.mu.Lock()
	if s.timer != nil && s.timerGen == gen {
		s.timer = nil
		s.metrics.SetPending(false)
	}
	if s.closed || s.token == "" {
		s.mu.Unlock()
		return
	}
	if s.pushing {
		s.again = true
		s.mu.Unlock()
		return
	}
	s.pushing = true
	s.pending = false
	token := s.token
	s.mu.Unlock()

	err := s.store.Push(s.ctx, token)
	s.record(err)

	s.mu.Lock()
	s.pushing = false
	if s.again {
		s.again = false
		if !s.closed && s.token == token {
			s.pending = true
			s.scheduleLocked()
		}
	}
	s.mu.Unlock()
}

func (s *Syncer) record(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	if err == nil {
		s.lastSync = time.Now()
	}
}
