// Package session holds the signed-in user and drives per-session state.
//
// A successful sign-in hands the token to the cart syncer, which fetches the
// server cart once for the session. Signing out forgets the user and empties
// the cart and order list.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luther0929/Fake-Store/api"
)

// AuthAPI is the account side of the backend. *api.Client implements it.
type AuthAPI interface {
	SignIn(ctx context.Context, email, password string) (*api.AuthResult, error)
	SignUp(ctx context.Context, name, email, password string) (*api.AuthResult, error)
	UpdateProfile(ctx context.Context, token, name, password string) (*api.User, error)
}

// CartSession receives session changes. *cart.Syncer implements it.
type CartSession interface {
	Authenticate(ctx context.Context, token string) error
	SignOut()
}

// Resetter is state that is dropped on sign-out. *orders.Book implements it.
type Resetter interface {
	Reset()
}

// Manager is the authentication state of one client.
type Manager struct {
	auth   AuthAPI
	cart   CartSession
	orders Resetter
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	user      *api.User
	token     string
	isLoading bool
	lastErr   error
}

// Option configures a Manager.
type Option func(*Manager)

// WithCart wires the cart syncer.
func WithCart(c CartSession) Option {
	return func(m *Manager) {
		m.cart = c
	}
}

// WithOrders wires the order list.
func WithOrders(r Resetter) Option {
	return func(m *Manager) {
		m.orders = r
	}
}

// WithLogger sets the manager logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// New creates a signed-out manager.
func New(auth AuthAPI, opts ...Option) *Manager {
	m := &Manager{auth: auth, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SignIn opens a session for an existing account.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*api.User, error) {
	return m.open(ctx, func() (*api.AuthResult, error) {
		return m.auth.SignIn(ctx, email, password)
	})
}

// SignUp registers an account and opens a session for it.
func (m *Manager) SignUp(ctx context.Context, name, email, password string) (*api.User, error) {
	return m.open(ctx, func() (*api.AuthResult, error) {
		return m.auth.SignUp(ctx, name, email, password)
	})
}

// Restore resumes a session from a stored token. The user is known only by
// the token's subject until the next sign-in.
func (m *Manager) Restore(ctx context.Context, token string) error {
	if err := CheckToken(token, m.now()); err != nil {
		return err
	}
	user := &api.User{}
	if sub, ok := TokenSubject(token); ok {
		user.ID = api.ID(sub)
	}
	_, err := m.open(ctx, func() (*api.AuthResult, error) {
		return &api.AuthResult{User: *user, Token: token}, nil
	})
	return err
}

// open runs an authentication call and, on success, starts the session.
//
// A cart fetch failure does not fail the sign-in; it is recorded on the
// cart state instead.
func (m *Manager) open(ctx context.Context, call func() (*api.AuthResult, error)) (*api.User, error) {
	m.begin()
	res, err := call()
	if err == nil {
		err = CheckToken(res.Token, m.now())
	}
	if err != nil {
		m.fail(err)
		return nil, err
	}

	m.mu.Lock()
	prev := m.token
	user := res.User
	m.user = &user
	m.token = res.Token
	m.isLoading = false
	m.mu.Unlock()

	if prev != "" && prev != res.Token && m.orders != nil {
		m.orders.Reset()
	}
	m.logger.Info("signed in", zap.String("user_id", string(user.ID)))
	if m.cart != nil {
		if cerr := m.cart.Authenticate(ctx, res.Token); cerr != nil {
			m.logger.Warn("initial cart fetch failed", zap.Error(cerr))
		}
	}
	out := user
	return &out, nil
}

// UpdateProfile changes the account name and password. The id and email
// are kept from the current session.
func (m *Manager) UpdateProfile(ctx context.Context, name, password string) (*api.User, error) {
	token, err := m.ValidToken()
	if err != nil {
		return nil, err
	}

	m.begin()
	updated, err := m.auth.UpdateProfile(ctx, token, name, password)
	if err != nil {
		m.fail(err)
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.isLoading = false
	if m.user == nil {
		m.user = &api.User{}
	}
	m.user.Name = updated.Name
	out := *m.user
	return &out, nil
}

// SignOut ends the session.
func (m *Manager) SignOut() {
	m.mu.Lock()
	had := m.token != ""
	m.user = nil
	m.token = ""
	m.lastErr = nil
	m.isLoading = false
	m.mu.Unlock()

	if m.cart != nil {
		m.cart.SignOut()
	}
	if m.orders != nil {
		m.orders.Reset()
	}
	if had {
		m.logger.Info("signed out")
	}
}

// ValidToken returns the session token if it is present and unexpired.
func (m *Manager) ValidToken() (string, error) {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()
	if err := CheckToken(token, m.now()); err != nil {
		return "", err
	}
	return token, nil
}

// Token returns the session token, or "".
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// User returns the signed-in user.
func (m *Manager) User() (api.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return api.User{}, false
	}
	return *m.user, true
}

// IsAuthenticated reports whether a session is open.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != ""
}

// IsLoading reports whether an authentication call is in flight.
func (m *Manager) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isLoading
}

// LastError returns the last authentication failure, or nil.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// ClearError forgets the last failure.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = nil
}

func (m *Manager) begin() {
	m.mu.Lock()
	m.isLoading = true
	m.lastErr = nil
	m.mu.Unlock()
}

func (m *Manager) fail(err error) {
	m.mu.Lock()
	m.isLoading = false
	m.lastErr = err
	m.mu.Unlock()
	m.logger.Warn("authentication failed", zap.Error(err))
}
