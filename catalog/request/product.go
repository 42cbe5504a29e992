package request

import (
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

type FindProducts struct {
	Category string
	MinPrice *decimal.Decimal `validate:"omitempty"`
	MaxPrice *decimal.Decimal `validate:"omitempty"`
	Page     int              `validate:"gte=0"`
	Limit    int              `validate:"gte=0,lte=100"`
}

// QueryString renders the filter as a canonical query string; it doubles as
// the parameter segment of the cache key, so equal filters always hit the
// same entry.
func (f FindProducts) QueryString() string {
	values := url.Values{}
	if f.Category != "" {
		values.Set("category", f.Category)
	}
	if f.MinPrice != nil {
		values.Set("minPrice", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		values.Set("maxPrice", f.MaxPrice.String())
	}
	if f.Page > 0 {
		values.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		values.Set("limit", strconv.Itoa(f.Limit))
	}
	return values.Encode()
}

type SearchProducts struct {
	Query string `validate:"required"`
	Page  int    `validate:"gte=0"`
}

func (s SearchProducts) QueryString() string {
	values := url.Values{}
	values.Set("q", s.Query)
	if s.Page > 0 {
		values.Set("page", strconv.Itoa(s.Page))
	}
	return values.Encode()
}
