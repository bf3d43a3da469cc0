package store

import (
	"context"

	"food-order-bot/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CashClosures struct {
	db *gorm.DB
}

func NewCashClosures(db *gorm.DB) *CashClosures {
	return &CashClosures{db: db}
}

// Close stores the closure for (tenant, date) unless one already exists.
// It reports whether a new row was written.
func (c *CashClosures) Close(ctx context.Context, closure *models.CashClosure) (bool, error) {
	res := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(closure)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (c *CashClosures) Get(ctx context.Context, tenantID, date string) (*models.CashClosure, error) {
	var closure models.CashClosure
	err := c.db.WithContext(ctx).Where("tenant_id = ? AND date = ?", tenantID, date).First(&closure).Error
	if err != nil {
		return nil, notFound(err, "no cash closure for %s", date)
	}
	return &closure, nil
}
