package cart

import (
	"github.com/luther0929/Fake-Store/catalog"
	"github.com/luther0929/Fake-Store/money"
)

// AddItem adds one unit of product.
//
// A new line is appended at the rounded catalog price with the product's
// display fields. An existing line gains one unit and keeps the price it was
// added at.
//
// The total grows by the unrounded catalog price and is then re-rounded, so
// a 9.995 product added twice totals 19.99. A product whose catalog price
// no longer rounds to its line price is charged at the line price.
func AddItem(state State, product catalog.Product) State {
	items := state.cloneItems()
	charge := product.Price
	if i := state.index(product.ID); i >= 0 {
		items[i].Quantity++
		if money.Round2(charge) != items[i].Price {
			charge = items[i].Price
		}
		return state.adjusted(items, charge, 1)
	}

	items = append(items, LineItem{
		RawLine: RawLine{
			ID:       product.ID,
			Price:    money.Round2(product.Price),
			Quantity: 1,
		},
		Details: DetailsOf(product),
	})
	return state.adjusted(items, charge, 1)
}
