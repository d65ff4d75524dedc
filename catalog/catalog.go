package catalog

import "math"

// CategoryAll selects every product in FilterByCategory.
const CategoryAll = "all"

// Catalog is an immutable snapshot of products and categories.
type Catalog struct {
	products   []Product
	byID       map[int]int
	categories []string
}

// New builds a snapshot. The inputs are copied.
func New(products []Product, categories []string) *Catalog {
	c := &Catalog{
		products:   append([]Product(nil), products...),
		byID:       make(map[int]int, len(products)),
		categories: append([]string(nil), categories...),
	}
	for i, p := range c.products {
		c.byID[p.ID] = i
	}
	return c
}

// Products returns every product in catalog order.
func (c *Catalog) Products() []Product {
	return append([]Product(nil), c.products...)
}

// Categories returns the category names.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

// Product looks a product up by id.
func (c *Catalog) Product(id int) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// FilterByCategory returns the products of one category, or all of them
// for CategoryAll.
func (c *Catalog) FilterByCategory(category string) []Product {
	if category == CategoryAll {
		return c.Products()
	}
	var out []Product
	for _, p := range c.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// FindByPrice returns the first product priced within a cent of price.
//
// Older orders carry no product ids, so display falls back to price matching.
func (c *Catalog) FindByPrice(price float64) (Product, bool) {
	for _, p := range c.products {
		if math.Abs(p.Price-price) < 0.01 {
			return p, true
		}
	}
	return Product{}, false
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.products)
}
