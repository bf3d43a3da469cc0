package store_test

import (
	"context"
	"net/http"
	"testing"

	"food-order-bot/apperr"
	"food-order-bot/models"
	"food-order-bot/store"
	"food-order-bot/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMovementsDebitAndCredit(t *testing.T) {
	db := testutil.OpenDB(t)
	fx := testutil.Seed(t, db, 10)
	ledger := store.NewLedger(db)
	ctx := context.Background()

	err := ledger.ApplyMovements(ctx, fx.Tenant.ID, []store.Movement{
		{IngredientID: fx.Patty.ID, Quantity: 4},
		{IngredientID: fx.Bread.ID, Quantity: 4},
	}, models.MovementOut, "venta", nil)
	require.NoError(t, err)
	assert.Equal(t, 6.0, testutil.Stock(t, db, fx.Patty.ID))
	assert.Equal(t, 96.0, testutil.Stock(t, db, fx.Bread.ID))

	err = ledger.ApplyMovements(ctx, fx.Tenant.ID, []store.Movement{
		{IngredientID: fx.Patty.ID, Quantity: 4},
	}, models.MovementIn, "devolución", nil)
	require.NoError(t, err)
	assert.Equal(t, 10.0, testutil.Stock(t, db, fx.Patty.ID))

	movements, err := ledger.ListMovements(ctx, fx.Tenant.ID, "")
	require.NoError(t, err)
	require.Len(t, movements, 3)
	for _, m := range movements {
		if m.IngredientID == fx.Patty.ID && m.Type == models.MovementOut {
			assert.Equal(t, 10.0, m.StockBefore)
			assert.Equal(t, 6.0, m.StockAfter)
		}
	}
}

func TestApplyMovementsIsAllOrNothing(t *testing.T) {
	db := testutil.OpenDB(t)
	fx := testutil.Seed(t, db, 1)
	ledger := store.NewLedger(db)

	// Bread sorts or not before Patty; either way nothing may be applied.
	err := ledger.ApplyMovements(context.Background(), fx.Tenant.ID, []store.Movement{
		{IngredientID: fx.Bread.ID, Quantity: 2},
		{IngredientID: fx.Patty.ID, Quantity: 2},
	}, models.MovementOut, "venta", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.StatusCode(err))

	assert.Equal(t, 1.0, testutil.Stock(t, db, fx.Patty.ID))
	assert.Equal(t, 100.0, testutil.Stock(t, db, fx.Bread.ID))
	movements, err := ledger.ListMovements(context.Background(), fx.Tenant.ID, "")
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestApplyMovementsUnknownIngredient(t *testing.T) {
	db := testutil.OpenDB(t)
	fx := testutil.Seed(t, db, 1)
	err := store.NewLedger(db).ApplyMovements(context.Background(), fx.Tenant.ID, []store.Movement{
		{IngredientID: "missing", Quantity: 1},
	}, models.MovementOut, "venta", nil)
	assert.True(t, apperr.IsNotFound(err))
}

func TestAdjustNeverGoesNegative(t *testing.T) {
	db := testutil.OpenDB(t)
	fx := testutil.Seed(t, db, 3)
	ledger := store.NewLedger(db)
	ctx := context.Background()

	_, err := ledger.Adjust(ctx, fx.Tenant.ID, fx.Patty.ID, -5, "rotura")
	require.Error(t, err)
	assert.Equal(t, 3.0, testutil.Stock(t, db, fx.Patty.ID))

	m, err := ledger.Adjust(ctx, fx.Tenant.ID, fx.Patty.ID, -2, "rotura")
	require.NoError(t, err)
	assert.Equal(t, models.MovementAdjust, m.Type)
	assert.Equal(t, 2.0, m.Quantity)
	assert.Equal(t, 3.0, m.StockBefore)
	assert.Equal(t, 1.0, m.StockAfter)

	_, err = ledger.Adjust(ctx, fx.Tenant.ID, fx.Patty.ID, 0, "nada")
	assert.Equal(t, http.StatusBadRequest, apperr.StatusCode(err))
}
