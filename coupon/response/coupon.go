package response

import (
	"time"

	"github.com/shopspring/decimal"
)

type Coupon struct {
	Code         string          `json:"code"`
	Description  string          `json:"description"`
	DiscountType string          `json:"discount_type"`
	Value        decimal.Decimal `json:"value"`
	Discount     decimal.Decimal `json:"discount"`
	MinSubtotal  decimal.Decimal `json:"min_subtotal"`
	ExpiresAt    time.Time       `json:"expires_at"`
}
