// Package cart is the client-side staging cart: line items merged by
// product+variant identity, derived aggregates, and a synchronous mirror to
// key-value storage after every mutation. Checkout reconciles against
// server-side stock and price; nothing here talks to the network.
package cart

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrEmptyCart       = errors.New("cart is empty")
)

// Variant is a selected size/color combination, immutable once a line exists.
type Variant struct {
	Size  string `json:"size"`
	Color string `json:"color"`
}

// Snapshot copies the product fields needed for display and pricing at
// add-time. It is never re-synced: an existing line shows the price the
// product had when it was added.
type Snapshot struct {
	Name           string           `json:"name"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	Images         []string         `json:"images,omitempty"`
	Stock          int32            `json:"stock"`
	Slug           string           `json:"slug"`
	TaxRate        decimal.Decimal  `json:"tax_rate"`
}

type Line struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Snapshot  Snapshot        `json:"snapshot"`
	Variant   *Variant        `json:"variant,omitempty"`
	Quantity  int32           `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// AddItem is a candidate line; it merges into an existing line when product
// and variant match, otherwise it is appended.
type AddItem struct {
	ProductID uuid.UUID `validate:"required"       json:"product_id"`
	Quantity  int32     `validate:"required,gte=1" json:"quantity"`
	Variant   *Variant  `json:"variant,omitempty"`
	Snapshot  Snapshot  `json:"snapshot"`
}

// sameIdentity is the merge rule: same product AND same variant (by
// size+color); a nil variant only matches another nil variant.
func sameIdentity(line Line, item AddItem) bool {
	if line.ProductID != item.ProductID {
		return false
	}
	if line.Variant == nil && item.Variant == nil {
		return true
	}
	if line.Variant == nil || item.Variant == nil {
		return false
	}
	return *line.Variant == *item.Variant
}

func lineTotal(price decimal.Decimal, quantity int32) decimal.Decimal {
	return price.Mul(decimal.NewFromInt32(quantity))
}
