// Package store implements persistence on gorm. Every query is scoped by
// tenant id.
package store

import (
	"context"
	"errors"

	"food-order-bot/apperr"
	"food-order-bot/models"

	"gorm.io/gorm"
)

// Catalog serves tenants, products, extras and delivery zones.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := c.db.WithContext(ctx).First(&tenant, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "tenant %s not found", id)
	}
	return &tenant, nil
}

// GetTenantByPhoneNumberID resolves the tenant owning a WhatsApp number.
func (c *Catalog) GetTenantByPhoneNumberID(ctx context.Context, phoneNumberID string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := c.db.WithContext(ctx).
		Where("wa_phone_number_id = ? AND active = ?", phoneNumberID, true).
		First(&tenant).Error
	if err != nil {
		return nil, notFound(err, "no active tenant for phone number %s", phoneNumberID)
	}
	return &tenant, nil
}

func (c *Catalog) ListActiveTenants(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := c.db.WithContext(ctx).Where("active = ?", true).Order("name").Find(&tenants).Error
	return tenants, err
}

func (c *Catalog) ListAvailableProducts(ctx context.Context, tenantID string) ([]models.Product, error) {
	var products []models.Product
	err := c.db.WithContext(ctx).Preload("Ingredients").
		Where("tenant_id = ? AND available = ?", tenantID, true).
		Order("position asc, name asc").
		Find(&products).Error
	return products, err
}

func (c *Catalog) GetProductByID(ctx context.Context, tenantID, id string) (*models.Product, error) {
	var product models.Product
	err := c.db.WithContext(ctx).Preload("Ingredients").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&product).Error
	if err != nil {
		return nil, notFound(err, "product %s not found", id)
	}
	return &product, nil
}

func (c *Catalog) ListActiveExtras(ctx context.Context, tenantID string) ([]models.Extra, error) {
	var extras []models.Extra
	err := c.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("name asc").
		Find(&extras).Error
	return extras, err
}

func (c *Catalog) ListActiveDeliveryZones(ctx context.Context, tenantID string) ([]models.DeliveryZone, error) {
	var zones []models.DeliveryZone
	err := c.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("price asc, name asc").
		Find(&zones).Error
	return zones, err
}

func (c *Catalog) GetDeliveryZone(ctx context.Context, tenantID, id string) (*models.DeliveryZone, error) {
	var zone models.DeliveryZone
	err := c.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&zone).Error
	if err != nil {
		return nil, notFound(err, "delivery zone %s not found", id)
	}
	return &zone, nil
}

// notFound maps gorm.ErrRecordNotFound to a 404 domain error and leaves any
// other error untouched.
func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(format, args...)
	}
	return err
}
