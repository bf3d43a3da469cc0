package store

import (
	"context"
	"time"

	"food-order-bot/apperr"
	"food-order-bot/models"

	"gorm.io/gorm"
)

type Orders struct {
	db *gorm.DB
}

func NewOrders(db *gorm.DB) *Orders {
	return &Orders{db: db}
}

// OrderFilter narrows List. Zero values mean "no constraint".
type OrderFilter struct {
	Statuses []models.OrderStatus
	From     time.Time
	To       time.Time
	Limit    int
}

// StatusChange is one atomic step of an order's lifecycle: the guarded
// status write, optional field updates, the stock movements caused by the
// transition and its audit row.
type StatusChange struct {
	TenantID     string
	OrderID      string
	From         models.OrderStatus
	To           models.OrderStatus
	Fields       map[string]interface{}
	Movements    []Movement
	MovementType models.MovementType
	Reason       string
	ChangedBy    string
	Note         string
}

// Create persists the order with its items and the initial history row.
func (o *Orders) Create(ctx context.Context, order *models.Order, changedBy, note string) error {
	return o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return tx.Create(&models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  order.Status,
			ChangedBy: changedBy,
			Note:      note,
		}).Error
	})
}

func (o *Orders) Get(ctx context.Context, tenantID, id string) (*models.Order, error) {
	var order models.Order
	err := o.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&order).Error
	if err != nil {
		return nil, notFound(err, "order %s not found", id)
	}
	return &order, nil
}

func (o *Orders) List(ctx context.Context, tenantID string, f OrderFilter) ([]models.Order, error) {
	query := o.db.WithContext(ctx).Preload("Items").Where("tenant_id = ?", tenantID)
	if len(f.Statuses) > 0 {
		query = query.Where("status IN ?", f.Statuses)
	}
	if !f.From.IsZero() {
		query = query.Where("created_at >= ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		query = query.Where("created_at < ?", f.To.UTC())
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	var orders []models.Order
	err := query.Order("created_at desc").Find(&orders).Error
	return orders, err
}

// UpdateFields patches non-status columns.
func (o *Orders) UpdateFields(ctx context.Context, tenantID, id string, fields map[string]interface{}) error {
	if _, ok := fields["status"]; ok {
		return apperr.BadRequest("status must change through ApplyStatusChange")
	}
	res := o.db.WithContext(ctx).Model(&models.Order{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("order %s not found", id)
	}
	return nil
}

// ApplyStatusChange runs the whole transition in one transaction. The status
// write only matches while the order is still in From, so a concurrent
// transition makes this one fail with a conflict and roll back its stock
// movements.
func (o *Orders) ApplyStatusChange(ctx context.Context, c StatusChange) error {
	return o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": c.To}
		for k, v := range c.Fields {
			updates[k] = v
		}
		res := tx.Model(&models.Order{}).
			Where("tenant_id = ? AND id = ? AND status = ?", c.TenantID, c.OrderID, c.From).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("order %s is no longer %s", c.OrderID, c.From)
		}

		if len(c.Movements) > 0 {
			orderID := c.OrderID
			if err := applyMovements(tx, c.TenantID, c.Movements, c.MovementType, c.Reason, &orderID); err != nil {
				return err
			}
		}

		return tx.Create(&models.OrderStatusHistory{
			OrderID:    c.OrderID,
			FromStatus: c.From,
			ToStatus:   c.To,
			ChangedBy:  c.ChangedBy,
			Note:       c.Note,
		}).Error
	})
}
