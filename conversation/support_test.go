package conversation

import (
	"context"
	"testing"
	"time"

	"food-order-bot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  Sí ":           "si",
		"¡Hola!":          "hola",
		"MENÚ":            "menu",
		"Buenas   tardes": "buenas tardes",
		"confirmar.":      "confirmar",
		"-3":              "-3",
		"+5":              "+5",
		"¿2?":             "2",
		"Dirección 1234":  "direccion 1234",
		"2":               "2",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalize(in), in)
	}
}

func TestParseIndex(t *testing.T) {
	idx, ok := parseIndex("3", 3)
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	for _, in := range []string{"0", "4", "-1", "+2", "2.0", "uno", ""} {
		_, ok := parseIndex(in, 3)
		assert.False(t, ok, in)
	}
}

func TestCustomerPhone(t *testing.T) {
	assert.Equal(t, "+5491122223333", CustomerPhone("5491122223333", "AR"))
	assert.Equal(t, "+5491122223333", CustomerPhone("+54 9 11 2222-3333", "AR"))
	assert.Empty(t, CustomerPhone("no-number", "AR"))
}

func TestCartItemAggregation(t *testing.T) {
	item := CartItem{Product: models.Product{ID: "p", Price: 1000}, Quantity: 2}
	egg := models.Extra{ID: "egg", Name: "Huevo", Price: 200}
	assert.Equal(t, 1, item.AddExtra(egg))
	assert.Equal(t, 2, item.AddExtra(egg))
	assert.Len(t, item.Extras, 1)

	cheese := models.Customization{IngredientID: "cheese", Type: models.CustomizationAdd, ExtraPrice: 300}
	assert.True(t, item.AddCustomization(cheese))
	assert.False(t, item.AddCustomization(cheese))
	assert.True(t, item.AddCustomization(models.Customization{IngredientID: "cheese", Type: models.CustomizationRemove}))

	assert.Equal(t, 3400.0, item.Total())
	line := item.Line()
	assert.Equal(t, "p", line.ProductID)
	assert.Len(t, line.Customizations, 2)
	require.Len(t, line.Extras, 1)
	assert.Equal(t, 2, line.Extras[0].Quantity)
}

func TestMemoryStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(50 * time.Millisecond)

	s := NewState()
	s.Step = StepSelectingQuantity
	require.NoError(t, store.Set(ctx, "t:c", s))

	got, err := store.Get(ctx, "t:c")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StepSelectingQuantity, got.Step)

	got.Step = StepIdle
	again, err := store.Get(ctx, "t:c")
	require.NoError(t, err)
	assert.Equal(t, StepSelectingQuantity, again.Step, "stored copy is independent")

	time.Sleep(150 * time.Millisecond)
	got, err = store.Get(ctx, "t:c")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryDeduper(t *testing.T) {
	d := NewMemoryDeduper()
	first, err := d.FirstSeen(context.Background(), "wamid.1")
	require.NoError(t, err)
	assert.True(t, first)
	first, err = d.FirstSeen(context.Background(), "wamid.1")
	require.NoError(t, err)
	assert.False(t, first)
}

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := l.Lock(context.Background(), "other")
	require.NoError(t, err)
	other()

	unlock()
	unlock()
	again, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	again()
	assert.Empty(t, l.locks)
}
