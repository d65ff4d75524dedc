package cart

import (
	"strconv"

	"github.com/luther0929/Fake-Store/catalog"
)

// Lookup finds catalog products by id. *catalog.Catalog and *catalog.Cache
// implement it.
type Lookup interface {
	Product(id int) (catalog.Product, bool)
}

// DisplayLine is a cart line ready to show. Placeholder is set when no
// display fields could be found; Details is then zero.
type DisplayLine struct {
	RawLine
	Details     Details
	Placeholder bool
}

// Name is the line's title, or a stand-in when the product is unknown.
func (d DisplayLine) Name() string {
	if d.Placeholder || d.Details.Title == "" {
		return "Product #" + strconv.Itoa(d.ID)
	}
	return d.Details.Title
}

// Reconcile resolves display fields for every line.
//
// Lines that already carry details keep them. The others take the catalog
// entry with the same id while keeping their own price and quantity. Lines
// with no catalog match come back as placeholders. A nil lookup resolves
// nothing. items is not modified.
func Reconcile(items []LineItem, lookup Lookup) []DisplayLine {
	out := make([]DisplayLine, 0, len(items))
	for _, it := range items {
		line := DisplayLine{RawLine: it.RawLine}
		switch {
		case it.Details != nil:
			line.Details = *it.Details
		case lookup != nil:
			if p, ok := lookup.Product(it.ID); ok {
				line.Details = *DetailsOf(p)
			} else {
				line.Placeholder = true
			}
		default:
			line.Placeholder = true
		}
		out = append(out, line)
	}
	return out
}
