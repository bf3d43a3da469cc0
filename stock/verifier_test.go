package stock_test

import (
	"context"
	"errors"
	"testing"

	"food-order-bot/apperr"
	"food-order-bot/models"
	"food-order-bot/pricing"
	"food-order-bot/stock"
	"food-order-bot/store"
	"food-order-bot/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyEnoughStock(t *testing.T) {
	db := testutil.OpenDB(t)
	fx := testutil.Seed(t, db, 2)
	v := stock.NewVerifier(store.NewCatalog(db), store.NewLedger(db), false, testutil.Logger())

	res, err := v.Verify(context.Background(), fx.Tenant.ID, []pricing.Line{{ProductID: fx.Burger.ID, Quantity: 2}})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Empty(t, res.Issues)
	assert.Equal(t, 2.0, testutil.Stock(t, db, fx.Patty.ID), "verification never mutates stock")
}

func TestVerifyAggregatesAcrossLines(t *testing.T) {
	db := testutil.OpenDB(t)
	fx := testutil.Seed(t, db, 2)
	v := stock.NewVerifier(store.NewCatalog(db), store.NewLedger(db), false, testutil.Logger())

	// each line alone fits, together they need 3 patties
	res, err := v.Verify(context.Background(), fx.Tenant.ID, []pricing.Line{
		{ProductID: fx.Burger.ID, Quantity: 2},
		{ProductID: fx.Burger.ID, Quantity: 1},
	})
	require.NoError(t, err)
	assert.False(t, res.OK)
	require.Len(t, res.Issues, 1)
	assert.Contains(t, res.Issues[0], "Medallón")
}

func TestVerifyUsesCurrentProductDefinition(t *testing.T) {
	db := testutil.OpenDB(t)
	fx := testutil.Seed(t, db, 5)
	v := stock.NewVerifier(store.NewCatalog(db), store.NewLedger(db), false, testutil.Logger())

	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", fx.Burger.ID).Update("available", false).Error)
	res, err := v.Verify(context.Background(), fx.Tenant.ID, []pricing.Line{{ProductID: fx.Burger.ID, Quantity: 1}})
	require.NoError(t, err)
	assert.False(t, res.OK)
}

func TestVerifyCountsExtrasAndAddedIngredients(t *testing.T) {
	db := testutil.OpenDB(t)
	fx := testutil.Seed(t, db, 5)
	require.NoError(t, db.Model(&models.Ingredient{}).Where("id = ?", fx.Cheese.ID).Update("stock", 4).Error)
	v := stock.NewVerifier(store.NewCatalog(db), store.NewLedger(db), false, testutil.Logger())

	// base cheddar 1 + added cheddar 1 + dip 2 = 4 per burger
	line := pricing.Line{
		ProductID:      fx.Burger.ID,
		Quantity:       1,
		Customizations: []pricing.LineCustomization{{IngredientID: fx.Cheese.ID, Type: models.CustomizationAdd}},
		Extras:         []pricing.LineExtra{{ExtraID: fx.Dip.ID, Quantity: 1}},
	}
	res, err := v.Verify(context.Background(), fx.Tenant.ID, []pricing.Line{line})
	require.NoError(t, err)
	assert.True(t, res.OK)

	line.Quantity = 2
	res, err = v.Verify(context.Background(), fx.Tenant.ID, []pricing.Line{line})
	require.NoError(t, err)
	assert.False(t, res.OK)
}

type brokenIngredients struct{ err error }

func (b brokenIngredients) GetIngredient(context.Context, string, string) (*models.Ingredient, error) {
	return nil, b.err
}

func TestVerifyLookupFailurePolicy(t *testing.T) {
	db := testutil.OpenDB(t)
	fx := testutil.Seed(t, db, 5)
	catalog := store.NewCatalog(db)
	lines := []pricing.Line{{ProductID: fx.Burger.ID, Quantity: 1}}
	missing := brokenIngredients{err: apperr.NotFound("ingredient not found")}

	closed := stock.NewVerifier(catalog, missing, false, testutil.Logger())
	res, err := closed.Verify(context.Background(), fx.Tenant.ID, lines)
	require.NoError(t, err)
	assert.False(t, res.OK)

	open := stock.NewVerifier(catalog, missing, true, testutil.Logger())
	res, err = open.Verify(context.Background(), fx.Tenant.ID, lines)
	require.NoError(t, err)
	assert.True(t, res.OK)

	down := stock.NewVerifier(catalog, brokenIngredients{err: errors.New("connection reset")}, false, testutil.Logger())
	_, err = down.Verify(context.Background(), fx.Tenant.ID, lines)
	assert.Error(t, err)
}
