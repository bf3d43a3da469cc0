// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"io"
	"testing"

	"food-order-bot/config"
	"food-order-bot/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OpenDB returns a migrated, private in-memory sqlite database.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := config.OpenDB("sqlite", dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Logger discards output.
func Logger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// Fixture is a small burger shop catalog.
type Fixture struct {
	Tenant  models.Tenant
	Bread   models.Ingredient
	Patty   models.Ingredient
	Cheese  models.Ingredient
	Onion   models.Ingredient
	Bacon   models.Ingredient
	Burger  models.Product
	Fries   models.Product
	Egg     models.Extra
	Dip     models.Extra
	Centro  models.DeliveryZone
	Afueras models.DeliveryZone
}

// Seed inserts the fixture catalog. Patty stock is pattyStock; every other
// ingredient has 100 units.
func Seed(t testing.TB, db *gorm.DB, pattyStock float64) *Fixture {
	t.Helper()
	f := &Fixture{}
	f.Tenant = models.Tenant{Name: "La Hamburguesería", Active: true, HasDelivery: true, HasPickup: true,
		NotificationPhone: "5491100000000", WAPhoneNumberID: "phone-1"}
	must(t, db.Create(&f.Tenant).Error)

	tid := f.Tenant.ID
	f.Bread = models.Ingredient{TenantID: tid, Name: "Pan", Unit: "u", Stock: 100}
	f.Patty = models.Ingredient{TenantID: tid, Name: "Medallón", Unit: "u", Stock: pattyStock}
	f.Cheese = models.Ingredient{TenantID: tid, Name: "Cheddar", Unit: "feta", Stock: 100}
	f.Onion = models.Ingredient{TenantID: tid, Name: "Cebolla", Unit: "g", Stock: 100}
	f.Bacon = models.Ingredient{TenantID: tid, Name: "Panceta", Unit: "feta", Stock: 100}
	for _, ing := range []*models.Ingredient{&f.Bread, &f.Patty, &f.Cheese, &f.Onion, &f.Bacon} {
		must(t, db.Create(ing).Error)
	}

	f.Burger = models.Product{TenantID: tid, Name: "Hamburguesa Clásica", Price: 2500, Available: true, Position: 1,
		Ingredients: []models.ProductIngredient{
			{IngredientID: f.Bread.ID, Name: "Pan", Quantity: 1},
			{IngredientID: f.Patty.ID, Name: "Medallón", Quantity: 1},
			{IngredientID: f.Cheese.ID, Name: "Cheddar", Quantity: 1, IsRemovable: true, IsExtra: true, ExtraPrice: 300},
			{IngredientID: f.Onion.ID, Name: "Cebolla", Quantity: 10, IsRemovable: true},
			{IngredientID: f.Bacon.ID, Name: "Panceta", Quantity: 0, IsExtra: true, ExtraPrice: 500},
		}}
	f.Fries = models.Product{TenantID: tid, Name: "Papas Fritas", Price: 1200, Available: true, Position: 2}
	must(t, db.Create(&f.Burger).Error)
	must(t, db.Create(&f.Fries).Error)

	f.Egg = models.Extra{TenantID: tid, Name: "Huevo frito", Price: 200, Active: true}
	f.Dip = models.Extra{TenantID: tid, Name: "Salsa cheddar", Price: 400, Active: true,
		IngredientID: &f.Cheese.ID, StockQuantity: 2}
	must(t, db.Create(&f.Egg).Error)
	must(t, db.Create(&f.Dip).Error)

	f.Centro = models.DeliveryZone{TenantID: tid, Name: "Centro", Price: 300, Active: true}
	f.Afueras = models.DeliveryZone{TenantID: tid, Name: "Afueras", Price: 700, Active: true}
	must(t, db.Create(&f.Centro).Error)
	must(t, db.Create(&f.Afueras).Error)
	return f
}

// Stock reads the live stock of an ingredient.
func Stock(t testing.TB, db *gorm.DB, ingredientID string) float64 {
	t.Helper()
	var ing models.Ingredient
	must(t, db.First(&ing, "id = ?", ingredientID).Error)
	return ing.Stock
}

func must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
}
