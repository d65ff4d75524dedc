// Package apitest runs an in-memory storefront backend for tests and demos.
//
// The server implements the backend routes used by package api and the
// catalog routes used by package catalog. Session tokens are HS256 JWTs.
package apitest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/luther0929/Fake-Store/api"
	"github.com/luther0929/Fake-Store/catalog"
)

// Route names, used with Calls, FailNext and SetHook.
const (
	RouteSignUp      = "signup"
	RouteSignIn      = "signin"
	RouteUpdateUser  = "update-user"
	RouteGetCart     = "get-cart"
	RoutePutCart     = "put-cart"
	RouteOrders      = "orders"
	RouteNewOrder    = "new-order"
	RouteUpdateOrder = "update-order"
	RouteProducts    = "products"
	RouteCategories  = "categories"
	RouteProduct     = "product"
)

// TokenTTL is the lifetime of tokens minted on sign-in.
const TokenTTL = time.Hour

type user struct {
	ID       string
	Name     string
	Email    string
	Password string
}

type order struct {
	ID          int
	UserID      string
	Items       []api.OrderLine
	IsPaid      bool
	IsDelivered bool
}

// Server is a fake backend. It is safe for concurrent use.
type Server struct {
	*httptest.Server

	secret []byte
	logger *zap.Logger

	mu          sync.Mutex
	users       map[string]*user
	carts       map[string][]api.CartLine
	orders      []*order
	products    []catalog.Product
	calls       map[string]int
	failures    map[string][]string
	hooks       map[string]func(*http.Request)
	nextUserID  int
	nextOrderID int
}

// Option configures a Server.
type Option func(*Server)

// WithProducts replaces the default catalog.
func WithProducts(products []catalog.Product) Option {
	return func(s *Server) {
		s.products = append([]catalog.Product(nil), products...)
	}
}

// WithLogger logs each request.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer starts a fake backend. Call Close when done.
func NewServer(opts ...Option) *Server {
	s := &Server{
		secret:      []byte("apitest-secret"),
		logger:      zap.NewNop(),
		users:       make(map[string]*user),
		carts:       make(map[string][]api.CartLine),
		products:    DefaultProducts(),
		calls:       make(map[string]int),
		failures:    make(map[string][]string),
		hooks:       make(map[string]func(*http.Request)),
		nextUserID:  1,
		nextOrderID: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc(api.PathSignUp, s.handleSignUp).Methods(http.MethodPost).Name(RouteSignUp)
	r.HandleFunc(api.PathSignIn, s.handleSignIn).Methods(http.MethodPost).Name(RouteSignIn)
	r.HandleFunc(api.PathUpdateUser, s.authed(s.handleUpdateUser)).Methods(http.MethodPost).Name(RouteUpdateUser)
	r.HandleFunc(api.PathCart, s.authed(s.handleGetCart)).Methods(http.MethodGet).Name(RouteGetCart)
	r.HandleFunc(api.PathCart, s.authed(s.handlePutCart)).Methods(http.MethodPut).Name(RoutePutCart)
	r.HandleFunc(api.PathOrders, s.authed(s.handleOrders)).Methods(http.MethodGet).Name(RouteOrders)
	r.HandleFunc(api.PathNewOrder, s.authed(s.handleNewOrder)).Methods(http.MethodPost).Name(RouteNewOrder)
	r.HandleFunc(api.PathUpdateOrder, s.authed(s.handleUpdateOrder)).Methods(http.MethodPost).Name(RouteUpdateOrder)

	r.HandleFunc("/products", s.handleProducts).Methods(http.MethodGet).Name(RouteProducts)
	r.HandleFunc("/products/categories", s.handleCategories).Methods(http.MethodGet).Name(RouteCategories)
	r.HandleFunc("/products/{id:[0-9]+}", s.handleProduct).Methods(http.MethodGet).Name(RouteProduct)

	r.Use(s.middleware)
	return r
}

// middleware counts calls, runs hooks and injects queued failures.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		s.logger.Debug("apitest request",
			zap.String("route", name),
			zap.String("method", r.Method),
			zap.String("request_id", r.Header.Get(api.HeaderRequestID)),
		)

		s.mu.Lock()
		s.calls[name]++
		hook := s.hooks[name]
		var failure *string
		if queue := s.failures[name]; len(queue) > 0 {
			msg := queue[0]
			failure = &msg
			s.failures[name] = queue[1:]
		}
		s.mu.Unlock()

		if hook != nil {
			hook(r)
		}
		if failure != nil {
			reject(w, http.StatusOK, *failure)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authed resolves the bearer token to a user id.
func (s *Server) authed(h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			reject(w, http.StatusUnauthorized, "No token provided")
			return
		}
		userID, err := s.verify(raw)
		if err != nil {
			reject(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		h(w, r, userID)
	}
}

// IssueToken mints a session token for userID that expires after ttl.
// A negative ttl yields an already expired token.
func (s *Server) IssueToken(userID string, ttl time.Duration) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("apitest: sign token: %v", err))
	}
	return signed
}

func (s *Server) verify(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("token has no subject")
	}
	s.mu.Lock()
	_, known := s.users[sub]
	s.mu.Unlock()
	if !known {
		return "", errors.New("unknown user")
	}
	return sub, nil
}

// AddUser registers an account directly and returns its id and a token.
func (s *Server) AddUser(name, email, password string) (id, token string) {
	s.mu.Lock()
	u := s.addUserLocked(name, email, password)
	s.mu.Unlock()
	return u.ID, s.IssueToken(u.ID, TokenTTL)
}

func (s *Server) addUserLocked(name, email, password string) *user {
	u := &user{ID: strconv.Itoa(s.nextUserID), Name: name, Email: email, Password: password}
	s.nextUserID++
	s.users[u.ID] = u
	return u
}

// Calls returns how many requests route has served.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// FailNext makes the next request to route answer with a non-OK envelope
// carrying message. An empty message omits the field.
func (s *Server) FailNext(route, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], message)
}

// SetHook runs fn before each request to route is handled. A nil fn removes
// the hook. The hook runs without the server lock so it may block.
func (s *Server) SetHook(route string, fn func(*http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		delete(s.hooks, route)
		return
	}
	s.hooks[route] = fn
}

// SetCart replaces the stored cart of userID.
func (s *Server) SetCart(userID string, lines []api.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = append([]api.CartLine(nil), lines...)
}

// Cart returns the stored cart of userID.
func (s *Server) Cart(userID string) []api.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.CartLine(nil), s.carts[userID]...)
}

// AddOrder stores an order for userID and returns its id.
func (s *Server) AddOrder(userID string, items []api.OrderLine, paid, delivered bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addOrderLocked(userID, items, paid, delivered).ID
}

func (s *Server) addOrderLocked(userID string, items []api.OrderLine, paid, delivered bool) *order {
	o := &order{
		ID:          s.nextOrderID,
		UserID:      userID,
		Items:       append([]api.OrderLine(nil), items...),
		IsPaid:      paid,
		IsDelivered: delivered,
	}
	s.nextOrderID++
	s.orders = append(s.orders, o)
	return o
}

// OrderCount returns how many orders userID has placed.
func (s *Server) OrderCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.orders {
		if o.UserID == userID {
			n++
		}
	}
	return n
}

// OrderStatus reports the flags of order id.
func (s *Server) OrderStatus(id int) (paid, delivered, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			return o.IsPaid, o.IsDelivered, true
		}
	}
	return false, false, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, fields map[string]any) {
	body := map[string]any{"status": api.StatusOK}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

func reject(w http.ResponseWriter, status int, message string) {
	body := map[string]any{"status": "error"}
	if message != "" {
		body["message"] = message
	}
	writeJSON(w, status, body)
}
