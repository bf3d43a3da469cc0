// Command seed loads a demo burger shop: tenant, back office users, stock and
// catalog. It refuses to run twice against the same database.
package main

import (
	"flag"
	"os"

	"food-order-bot/config"
	"food-order-bot/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	phoneNumberID := flag.String("phone-number-id", os.Getenv("SEED_WA_PHONE_NUMBER_ID"), "WhatsApp phone number id of the demo tenant")
	password := flag.String("password", "admin123", "password for the demo users")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logrus.NewEntry(config.NewLogger(cfg.LogLevel))

	db, err := config.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}

	var count int64
	if err := db.Model(&models.Tenant{}).Count(&count).Error; err != nil {
		log.WithError(err).Fatal("could not inspect database")
	}
	if count > 0 {
		log.Info("database already has tenants, nothing to seed")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Fatal("could not hash password")
	}

	var tenant models.Tenant
	err = db.Transaction(func(tx *gorm.DB) error {
		tenant = models.Tenant{
			Name:            "Burger Demo",
			Active:          true,
			HasDelivery:     true,
			HasPickup:       true,
			WAPhoneNumberID: *phoneNumberID,
		}
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}
		return seedTenant(tx, tenant.ID, string(hash))
	})
	if err != nil {
		log.WithError(err).Fatal("seed failed")
	}
	log.WithFields(logrus.Fields{
		"tenant_id": tenant.ID,
		"admin":     "admin@demo.local",
		"staff":     "cocina@demo.local",
	}).Info("demo data loaded")
}

func seedTenant(tx *gorm.DB, tenantID, passwordHash string) error {
	users := []models.User{
		{TenantID: tenantID, Name: "Admin", Email: "admin@demo.local", PasswordHash: passwordHash, Role: models.RoleAdmin},
		{TenantID: tenantID, Name: "Cocina", Email: "cocina@demo.local", PasswordHash: passwordHash, Role: models.RoleStaff},
	}
	if err := tx.Create(&users).Error; err != nil {
		return err
	}

	ing := func(name, unit string, stock float64) *models.Ingredient {
		return &models.Ingredient{TenantID: tenantID, Name: name, Unit: unit, Stock: stock}
	}
	bread := ing("Pan de papa", "u", 120)
	patty := ing("Medallón de carne", "u", 150)
	cheddar := ing("Cheddar", "feta", 300)
	bacon := ing("Panceta", "feta", 200)
	onion := ing("Cebolla caramelizada", "g", 5000)
	lettuce := ing("Lechuga", "g", 3000)
	tomato := ing("Tomate", "rodaja", 400)
	potato := ing("Papas", "g", 20000)
	for _, i := range []*models.Ingredient{bread, patty, cheddar, bacon, onion, lettuce, tomato, potato} {
		if err := tx.Create(i).Error; err != nil {
			return err
		}
	}

	products := []models.Product{
		{TenantID: tenantID, Name: "Clásica", Description: "Medallón, cheddar, lechuga y tomate", Price: 6500, Available: true, Position: 1,
			Ingredients: []models.ProductIngredient{
				{IngredientID: bread.ID, Name: "Pan", Quantity: 1},
				{IngredientID: patty.ID, Name: "Medallón", Quantity: 1, IsExtra: true, ExtraPrice: 2200},
				{IngredientID: cheddar.ID, Name: "Cheddar", Quantity: 2, IsRemovable: true, IsExtra: true, ExtraPrice: 600},
				{IngredientID: lettuce.ID, Name: "Lechuga", Quantity: 15, IsRemovable: true},
				{IngredientID: tomato.ID, Name: "Tomate", Quantity: 2, IsRemovable: true},
			}},
		{TenantID: tenantID, Name: "Bacon", Description: "Doble medallón, cheddar, panceta y cebolla", Price: 8900, Available: true, Position: 2,
			Ingredients: []models.ProductIngredient{
				{IngredientID: bread.ID, Name: "Pan", Quantity: 1},
				{IngredientID: patty.ID, Name: "Medallón", Quantity: 2},
				{IngredientID: cheddar.ID, Name: "Cheddar", Quantity: 2, IsRemovable: true, IsExtra: true, ExtraPrice: 600},
				{IngredientID: bacon.ID, Name: "Panceta", Quantity: 2, IsRemovable: true, IsExtra: true, ExtraPrice: 900},
				{IngredientID: onion.ID, Name: "Cebolla", Quantity: 30, IsRemovable: true},
			}},
		{TenantID: tenantID, Name: "Papas fritas", Price: 3500, Available: true, Position: 3,
			Ingredients: []models.ProductIngredient{
				{IngredientID: potato.ID, Name: "Papas", Quantity: 250},
			}},
	}
	for i := range products {
		if err := tx.Create(&products[i]).Error; err != nil {
			return err
		}
	}

	extras := []models.Extra{
		{TenantID: tenantID, Name: "Huevo frito", Price: 700, Active: true},
		{TenantID: tenantID, Name: "Salsa cheddar", Price: 900, Active: true, IngredientID: &cheddar.ID, StockQuantity: 2},
		{TenantID: tenantID, Name: "Porción de papas", Price: 2500, Active: true, IngredientID: &potato.ID, StockQuantity: 150},
	}
	if err := tx.Create(&extras).Error; err != nil {
		return err
	}

	zones := []models.DeliveryZone{
		{TenantID: tenantID, Name: "Centro", Price: 800, Active: true},
		{TenantID: tenantID, Name: "Barrio Norte", Price: 1200, Active: true},
		{TenantID: tenantID, Name: "Afueras", Price: 2000, Active: true},
	}
	return tx.Create(&zones).Error
}
