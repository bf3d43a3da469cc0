// Package stock computes the ingredient demand of order items and checks it
// against live stock.
package stock

import (
	"sort"

	"food-order-bot/models"
	"food-order-bot/store"
)

// Requirements maps ingredient id to the quantity a set of items consumes.
type Requirements map[string]float64

func (r Requirements) add(ingredientID string, qty float64) {
	if ingredientID == "" || qty <= 0 {
		return
	}
	r[ingredientID] += qty
}

// ForItems accumulates, per ingredient: the base recipe times the item
// quantity, every added customization times the item quantity and every
// linked extra times its own quantity times the item quantity. Confirm
// debits and cancel credits exactly this.
func ForItems(items []models.OrderItem) Requirements {
	req := Requirements{}
	for _, it := range items {
		qty := float64(it.Quantity)
		for _, r := range it.Recipe {
			req.add(r.IngredientID, r.Quantity*qty)
		}
		for _, c := range it.Customizations {
			if c.Type == models.CustomizationAdd {
				req.add(c.IngredientID, c.StockQuantity*qty)
			}
		}
		for _, e := range it.Extras {
			req.add(e.IngredientID, e.StockQuantity*float64(e.Quantity)*qty)
		}
	}
	return req
}

// IngredientIDs returns the keys in a stable order.
func (r Requirements) IngredientIDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Movements converts the requirements into one ledger batch.
func (r Requirements) Movements() []store.Movement {
	movements := make([]store.Movement, 0, len(r))
	for _, id := range r.IngredientIDs() {
		movements = append(movements, store.Movement{IngredientID: id, Quantity: r[id]})
	}
	return movements
}
