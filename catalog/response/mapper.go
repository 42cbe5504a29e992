package response

import (
	"github.com/evermart/storefront/cart"
)

// CartSnapshot denormalizes the product into the add-time snapshot a cart
// line keeps; the line will keep showing this price even if the catalog
// moves on.
func (p Product) CartSnapshot() cart.Snapshot {
	return cart.Snapshot{
		Name:           p.Name,
		Price:          p.Price,
		CompareAtPrice: p.CompareAtPrice,
		Images:         p.Images,
		Stock:          p.Stock,
		Slug:           p.Slug,
		TaxRate:        p.TaxRate,
	}
}
