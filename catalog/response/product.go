package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	TaxRate        decimal.Decimal  `json:"tax_rate"`
	Stock          int32            `json:"stock"`
	Images         []string         `json:"images"`
	CategoryID     uuid.UUID        `json:"category_id"`
	Variants       []ProductVariant `json:"variants,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type ProductVariant struct {
	Size  string `json:"size"`
	Color string `json:"color"`
	Stock int32  `json:"stock"`
}
