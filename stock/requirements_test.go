package stock

import (
	"testing"

	"food-order-bot/models"
	"food-order-bot/store"

	"github.com/stretchr/testify/assert"
)

func TestForItems(t *testing.T) {
	items := []models.OrderItem{
		{
			Quantity: 2,
			Recipe:   []models.RecipeLine{{IngredientID: "bread", Quantity: 1}, {IngredientID: "patty", Quantity: 1}},
			Customizations: []models.Customization{
				{IngredientID: "cheese", Type: models.CustomizationAdd, StockQuantity: 1},
				{IngredientID: "onion", Type: models.CustomizationRemove, StockQuantity: 5},
			},
			Extras: []models.SelectedExtra{
				{ExtraID: "dip", IngredientID: "cheese", StockQuantity: 2, Quantity: 3},
				{ExtraID: "egg", Quantity: 1},
			},
		},
		{Quantity: 1, Recipe: []models.RecipeLine{{IngredientID: "patty", Quantity: 2}}},
	}

	req := ForItems(items)
	assert.Equal(t, Requirements{"bread": 2, "patty": 4, "cheese": 2 + 12}, req)
	assert.Equal(t, []store.Movement{
		{IngredientID: "bread", Quantity: 2},
		{IngredientID: "cheese", Quantity: 14},
		{IngredientID: "patty", Quantity: 4},
	}, req.Movements())
}

func TestForItemsEmpty(t *testing.T) {
	assert.Empty(t, ForItems(nil).Movements())
}
