package cart

import "github.com/luther0929/Fake-Store/catalog"

// RemoveItem removes one unit of product at its line price. The line is
// dropped when its last unit goes. Removing a product that is not in the
// cart returns state as is.
func RemoveItem(state State, product catalog.Product) State {
	i := state.index(product.ID)
	if i < 0 {
		return state
	}

	items := state.cloneItems()
	price := items[i].Price
	if items[i].Quantity > 1 {
		items[i].Quantity--
	} else {
		items = append(items[:i], items[i+1:]...)
	}
	return state.adjusted(items, price, -1)
}
