// Package cart holds the shopping cart and keeps it in sync with the backend.
//
// Transitions (AddItem, RemoveItem, Clear) are pure functions over State.
// Store wraps a State with a single writer and change notifications, Syncer
// decides when the store talks to the server, and Checkout turns the cart
// into an order.
package cart

import (
	"github.com/luther0929/Fake-Store/catalog"
	"github.com/luther0929/Fake-Store/money"
)

// RawLine is the part of a cart line the server knows about.
type RawLine struct {
	ID       int
	Price    float64
	Quantity int
}

// Subtotal returns price × quantity rounded to cents.
func (l RawLine) Subtotal() float64 {
	return money.LineTotal(l.Price, l.Quantity)
}

// Details are the display fields copied from the catalog.
type Details struct {
	Title       string
	Description string
	Category    string
	Image       string
	Rating      catalog.Rating
}

// DetailsOf copies the display fields of p.
func DetailsOf(p catalog.Product) *Details {
	return &Details{
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Image:       p.Image,
		Rating:      p.Rating,
	}
}

// LineItem is one product in the cart.
//
// Details is nil for lines that arrived from the server. Details values are
// never modified once attached, so copies of a LineItem may share them.
type LineItem struct {
	RawLine
	Details *Details
}

// State is a cart snapshot.
type State struct {
	Items         []LineItem
	TotalPrice    float64
	TotalQuantity int
	IsLoading     bool
	LastError     error
}

// Item returns the line for id.
func (s State) Item(id int) (LineItem, bool) {
	if i := s.index(id); i >= 0 {
		return s.Items[i], true
	}
	return LineItem{}, false
}

// IsEmpty reports whether the cart has no lines.
func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

func (s State) index(id int) int {
	for i, it := range s.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// withItems returns s holding items, with totals recomputed from them.
func (s State) withItems(items []LineItem) State {
	var acc money.Accumulator
	qty := 0
	for _, it := range items {
		acc.Add(it.Price, it.Quantity)
		qty += it.Quantity
	}
	s.Items = items
	s.TotalPrice = acc.Total()
	s.TotalQuantity = qty
	return s
}

// adjusted returns s holding items, with delta units at price applied to the
// running totals. The total is re-rounded after each step and an empty cart
// always totals zero.
func (s State) adjusted(items []LineItem, price float64, delta int) State {
	s.Items = items
	if len(items) == 0 {
		s.TotalPrice, s.TotalQuantity = 0, 0
		return s
	}
	s.TotalQuantity += delta
	s.TotalPrice = money.Round2(s.TotalPrice + float64(delta)*price)
	return s
}

func (s State) cloneItems() []LineItem {
	return append(make([]LineItem, 0, len(s.Items)+1), s.Items...)
}

// fromServer builds lines from the server cart. Lines with a non-positive
// count carry nothing and are dropped; a repeated id is merged into its
// first occurrence.
func fromServer(lines []RawLine) []LineItem {
	items := make([]LineItem, 0, len(lines))
	seen := make(map[int]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if i, ok := seen[l.ID]; ok {
			items[i].Quantity += l.Quantity
			continue
		}
		seen[l.ID] = len(items)
		items = append(items, LineItem{RawLine: RawLine{ID: l.ID, Price: money.Round2(l.Price), Quantity: l.Quantity}})
	}
	return items
}
