package apitest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/luther0929/Fake-Store/api"
	"github.com/luther0929/Fake-Store/catalog"
	"github.com/luther0929/Fake-Store/money"
)

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		reject(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	s.mu.Lock()
	for _, u := range s.users {
		if u.Email == req.Email {
			s.mu.Unlock()
			reject(w, http.StatusOK, "User already exists")
			return
		}
	}
	u := s.addUserLocked(req.Name, req.Email, req.Password)
	s.mu.Unlock()

	s.authResponse(w, u)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reject(w, http.StatusBadRequest, "Invalid request")
		return
	}

	s.mu.Lock()
	var found *user
	for _, u := range s.users {
		if u.Email == req.Email && u.Password == req.Password {
			found = u
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		reject(w, http.StatusOK, "Wrong email or password")
		return
	}
	s.authResponse(w, found)
}

func (s *Server) authResponse(w http.ResponseWriter, u *user) {
	id, _ := strconv.Atoi(u.ID)
	ok(w, map[string]any{
		"id":    id,
		"name":  u.Name,
		"email": u.Email,
		"token": s.IssueToken(u.ID, TokenTTL),
	})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request, userID string) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		reject(w, http.StatusBadRequest, "Name is required")
		return
	}

	s.mu.Lock()
	u := s.users[userID]
	u.Name = req.Name
	if req.Password != "" {
		u.Password = req.Password
	}
	s.mu.Unlock()

	ok(w, map[string]any{"name": req.Name})
}

func (s *Server) handleGetCart(w http.ResponseWriter, _ *http.Request, userID string) {
	ok(w, map[string]any{"items": s.Cart(userID)})
}

func (s *Server) handlePutCart(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Items []api.CartLine `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reject(w, http.StatusBadRequest, "Invalid cart")
		return
	}
	s.SetCart(userID, req.Items)
	ok(w, map[string]any{"message": "Cart updated"})
}

// orderBody mirrors the backend row, where order_items is stored as text.
type orderBody struct {
	ID          int      `json:"id"`
	UID         string   `json:"uid"`
	IsPaid      api.Flag `json:"is_paid"`
	IsDelivered api.Flag `json:"is_delivered"`
	OrderItems  string   `json:"order_items"`
	ItemNumbers int      `json:"item_numbers"`
	TotalPrice  int64    `json:"total_price"`
}

func (o *order) body() orderBody {
	items, _ := json.Marshal(o.Items)
	var acc money.Accumulator
	n := 0
	for _, it := range o.Items {
		acc.Add(it.Price, it.Quantity)
		n += it.Quantity
	}
	return orderBody{
		ID:          o.ID,
		UID:         o.UserID,
		IsPaid:      api.Flag(o.IsPaid),
		IsDelivered: api.Flag(o.IsDelivered),
		OrderItems:  string(items),
		ItemNumbers: n,
		TotalPrice:  money.Cents(acc.Total()),
	}
}

func (s *Server) handleOrders(w http.ResponseWriter, _ *http.Request, userID string) {
	s.mu.Lock()
	out := make([]orderBody, 0)
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o.body())
		}
	}
	s.mu.Unlock()
	ok(w, map[string]any{"orders": out})
}

func (s *Server) handleNewOrder(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Items []api.OrderLine `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reject(w, http.StatusBadRequest, "Invalid order")
		return
	}
	if len(req.Items) == 0 {
		reject(w, http.StatusOK, "Order has no items")
		return
	}

	s.mu.Lock()
	o := s.addOrderLocked(userID, req.Items, false, false)
	s.mu.Unlock()

	ok(w, map[string]any{"message": "Order created", "orderID": o.ID})
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		OrderID     int      `json:"orderID"`
		IsPaid      api.Flag `json:"isPaid"`
		IsDelivered api.Flag `json:"isDelivered"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reject(w, http.StatusBadRequest, "Invalid order update")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == req.OrderID && o.UserID == userID {
			o.IsPaid = bool(req.IsPaid)
			o.IsDelivered = bool(req.IsDelivered)
			ok(w, map[string]any{"message": "Order updated"})
			return
		}
	}
	reject(w, http.StatusNotFound, "Order not found")
}

func (s *Server) handleProducts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	products := append([]catalog.Product(nil), s.products...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	categories := make([]string, 0)
	for _, p := range s.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	http.Error(w, "product not found", http.StatusNotFound)
}
