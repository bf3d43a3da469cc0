// Package pricing turns cart lines into priced order item snapshots and
// keeps order totals consistent:
//
//	itemTotal = (unitPrice + Σ added customizations + Σ extraPrice*extraQty) * quantity
//	subtotal  = Σ itemTotal
//	total     = subtotal + deliveryCost
package pricing

import (
	"food-order-bot/models"

	"github.com/shopspring/decimal"
)

// ItemTotal prices one line from its snapshot.
func ItemTotal(unitPrice float64, customizations []models.Customization, extras []models.SelectedExtra, quantity int) float64 {
	unit := decimal.NewFromFloat(unitPrice)
	for _, c := range customizations {
		if c.Type == models.CustomizationAdd {
			unit = unit.Add(decimal.NewFromFloat(c.ExtraPrice))
		}
	}
	for _, e := range extras {
		unit = unit.Add(decimal.NewFromFloat(e.UnitPrice).Mul(decimal.NewFromInt(int64(e.Quantity))))
	}
	return unit.Mul(decimal.NewFromInt(int64(quantity))).InexactFloat64()
}

// Subtotal sums item totals recomputed from their snapshots.
func Subtotal(items []models.OrderItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(ItemTotal(it.UnitPrice, it.Customizations, it.Extras, it.Quantity)))
	}
	return sum.InexactFloat64()
}

func Total(subtotal, deliveryCost float64) float64 {
	return decimal.NewFromFloat(subtotal).Add(decimal.NewFromFloat(deliveryCost)).InexactFloat64()
}

// Apply recomputes every item total, the subtotal and the total of order in
// place. Every write path goes through it.
func Apply(order *models.Order) {
	for i := range order.Items {
		it := &order.Items[i]
		it.ItemTotal = ItemTotal(it.UnitPrice, it.Customizations, it.Extras, it.Quantity)
	}
	order.Subtotal = Subtotal(order.Items)
	order.Total = Total(order.Subtotal, order.DeliveryCost)
}
