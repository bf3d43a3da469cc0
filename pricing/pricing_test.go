package pricing

import (
	"context"
	"net/http"
	"testing"

	"food-order-bot/apperr"
	"food-order-bot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemTotal(t *testing.T) {
	cheese := models.Customization{IngredientID: "cheese", Type: models.CustomizationAdd, ExtraPrice: 300}
	noOnion := models.Customization{IngredientID: "onion", Type: models.CustomizationRemove, ExtraPrice: 999}
	egg := models.SelectedExtra{ExtraID: "egg", UnitPrice: 200, Quantity: 2}
	dip := models.SelectedExtra{ExtraID: "dip", UnitPrice: 150.5, Quantity: 1}

	cases := []struct {
		name           string
		customizations []models.Customization
		extras         []models.SelectedExtra
		quantity       int
		want           float64
	}{
		{"plain", nil, nil, 2, 5000},
		{"added customization", []models.Customization{cheese}, nil, 2, 5600},
		{"removed customization is free", []models.Customization{noOnion}, nil, 1, 2500},
		{"extras per unit", nil, []models.SelectedExtra{egg}, 3, (2500 + 400) * 3},
		{"everything", []models.Customization{cheese, noOnion}, []models.SelectedExtra{egg, dip}, 2, (2500 + 300 + 400 + 150.5) * 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, ItemTotal(2500, tc.customizations, tc.extras, tc.quantity), 1e-9)
		})
	}
}

func TestApplyKeepsInvariant(t *testing.T) {
	order := &models.Order{
		DeliveryCost: 300,
		Items: []models.OrderItem{
			{UnitPrice: 2500, Quantity: 2, ItemTotal: 1}, // stale total is recomputed
			{UnitPrice: 1200, Quantity: 1, Extras: []models.SelectedExtra{{UnitPrice: 0.1, Quantity: 3}}},
		},
	}
	Apply(order)
	assert.Equal(t, 5000.0, order.Items[0].ItemTotal)
	assert.InDelta(t, 1200.3, order.Items[1].ItemTotal, 1e-9)
	assert.InDelta(t, 6200.3, order.Subtotal, 1e-9)
	assert.InDelta(t, 6500.3, order.Total, 1e-9)
}

type fakeCatalog struct {
	products map[string]*models.Product
	extras   []models.Extra
}

func (f *fakeCatalog) GetProductByID(_ context.Context, _ string, id string) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, apperr.NotFound("product %s not found", id)
	}
	return p, nil
}

func (f *fakeCatalog) ListActiveExtras(context.Context, string) ([]models.Extra, error) {
	return f.extras, nil
}

func burgerCatalog() *fakeCatalog {
	cheese := "cheese"
	return &fakeCatalog{
		products: map[string]*models.Product{
			"burger": {ID: "burger", Name: "Burger", Price: 2500, Available: true, Ingredients: []models.ProductIngredient{
				{IngredientID: "patty", Name: "Medallón", Quantity: 1},
				{IngredientID: "cheese", Name: "Cheddar", Quantity: 1, IsRemovable: true, IsExtra: true, ExtraPrice: 300},
				{IngredientID: "bacon", Name: "Panceta", IsExtra: true, ExtraPrice: 500},
			}},
			"old": {ID: "old", Name: "Old", Price: 10, Available: false},
		},
		extras: []models.Extra{
			{ID: "egg", Name: "Huevo", Price: 200, Active: true},
			{ID: "dip", Name: "Dip", Price: 400, Active: true, IngredientID: &cheese, StockQuantity: 2},
		},
	}
}

func TestBuildItems(t *testing.T) {
	items, err := BuildItems(context.Background(), burgerCatalog(), "t1", []Line{{
		ProductID: "burger",
		Quantity:  2,
		Customizations: []LineCustomization{
			{IngredientID: "bacon", Type: models.CustomizationAdd},
			{IngredientID: "bacon", Type: models.CustomizationAdd},
			{IngredientID: "cheese", Type: models.CustomizationRemove},
		},
		Extras: []LineExtra{{ExtraID: "dip", Quantity: 1}, {ExtraID: "dip", Quantity: 1}, {ExtraID: "egg", Quantity: 1}},
	}})
	require.NoError(t, err)
	require.Len(t, items, 1)

	it := items[0]
	assert.Len(t, it.Customizations, 2, "duplicate (ingredient, type) pairs collapse")
	require.Len(t, it.Extras, 2, "extras aggregate by id")
	assert.Equal(t, 2, it.Extras[0].Quantity)
	assert.Equal(t, "cheese", it.Extras[0].IngredientID)
	assert.Equal(t, 1.0, it.Customizations[0].StockQuantity)
	assert.Equal(t, []models.RecipeLine{{IngredientID: "patty", Quantity: 1}, {IngredientID: "cheese", Quantity: 1}}, it.Recipe)
	assert.Equal(t, (2500.0+500+800+200)*2, it.ItemTotal)
}

func TestBuildItemsRejects(t *testing.T) {
	cat := burgerCatalog()
	cases := []struct {
		name string
		line Line
		code int
	}{
		{"quantity too high", Line{ProductID: "burger", Quantity: 11}, http.StatusBadRequest},
		{"quantity zero", Line{ProductID: "burger", Quantity: 0}, http.StatusBadRequest},
		{"unknown product", Line{ProductID: "nope", Quantity: 1}, http.StatusNotFound},
		{"unavailable product", Line{ProductID: "old", Quantity: 1}, http.StatusUnprocessableEntity},
		{"patty is not removable", Line{ProductID: "burger", Quantity: 1,
			Customizations: []LineCustomization{{IngredientID: "patty", Type: models.CustomizationRemove}}}, http.StatusBadRequest},
		{"unknown extra", Line{ProductID: "burger", Quantity: 1,
			Extras: []LineExtra{{ExtraID: "x", Quantity: 1}}}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildItems(context.Background(), cat, "t1", []Line{tc.line})
			require.Error(t, err)
			assert.Equal(t, tc.code, apperr.StatusCode(err))
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$0", Format(0))
	assert.Equal(t, "$300", Format(300))
	assert.Equal(t, "$5.300", Format(5300))
	assert.Equal(t, "$1.250.000", Format(1250000))
	assert.Equal(t, "$1.250,50", Format(1250.5))
	assert.Equal(t, "$10,05", Format(10.05))
	assert.Equal(t, "-$20", Format(-20))
}
