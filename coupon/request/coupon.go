package request

import (
	"github.com/shopspring/decimal"
)

type ValidateCoupon struct {
	Code     string          `validate:"required" json:"code"`
	Subtotal decimal.Decimal `validate:"required" json:"subtotal"`
}

type ApplyCoupon struct {
	Code string `validate:"required" json:"code"`
}
