package request

import (
	"github.com/evermart/storefront/cart"
)

// FromCartLines maps the staged cart into an order-creation payload. The
// backend re-prices against authoritative stock; the snapshot prices ride
// along so it can flag drift.
func FromCartLines(lines []cart.Line, address Address, couponCode string) CreateOrder {
	items := make([]OrderItem, len(lines))
	for i, line := range lines {
		item := OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Snapshot.Price,
		}
		if line.Variant != nil {
			item.Size = line.Variant.Size
			item.Color = line.Variant.Color
		}
		items[i] = item
	}
	return CreateOrder{Items: items, Address: address, CouponCode: couponCode}
}
