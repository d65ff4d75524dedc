package cart

// Clear empties the cart. Loading and error status are kept.
func Clear(state State) State {
	return state.withItems([]LineItem{})
}
