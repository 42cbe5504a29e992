package request

import (
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateOrder struct {
	Items      []OrderItem `validate:"required,min=1,dive" json:"items"`
	CouponCode string      `json:"coupon_code,omitempty"`
	Address    Address     `validate:"required"            json:"address"`
}

type OrderItem struct {
	ProductID uuid.UUID       `validate:"required"       json:"product_id"`
	Quantity  int32           `validate:"required,gte=1" json:"quantity"`
	Price     decimal.Decimal `validate:"required"       json:"price"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
}

type Address struct {
	Line1      string `validate:"required" json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `validate:"required" json:"city"`
	State      string `validate:"required" json:"state"`
	PostalCode string `validate:"required" json:"postal_code"`
	Phone      string `validate:"required" json:"phone"`
}

type UpdateStatus struct {
	Status string `validate:"required,oneof=pending processing shipped delivered cancelled" json:"status"`
}

type UpdateTracking struct {
	Carrier        string `validate:"required" json:"carrier"`
	TrackingNumber string `validate:"required" json:"tracking_number"`
}

type FindOrders struct {
	Status string
	Page   int `validate:"gte=0"`
}

func (f FindOrders) QueryString() string {
	values := url.Values{}
	if f.Status != "" {
		values.Set("status", f.Status)
	}
	if f.Page > 0 {
		values.Set("page", strconv.Itoa(f.Page))
	}
	return values.Encode()
}
