package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Dashboard struct {
	TotalOrders   int64           `json:"total_orders"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalUsers    int64           `json:"total_users"`
	TotalProducts int64           `json:"total_products"`
	RecentOrders  []RecentOrder   `json:"recent_orders"`
}

type RecentOrder struct {
	ID        uuid.UUID       `json:"id"`
	UserEmail string          `json:"user_email"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

type Analytics struct {
	Revenue       []TimePoint `json:"revenue"`
	OrderCounts   []TimePoint `json:"order_counts"`
	TopProducts   []TopItem   `json:"top_products"`
	TopCategories []TopItem   `json:"top_categories"`
}

type TimePoint struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

type TopItem struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
