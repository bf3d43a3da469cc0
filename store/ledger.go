package store

import (
	"context"
	"math"
	"sort"

	"food-order-bot/apperr"
	"food-order-bot/models"

	"gorm.io/gorm"
)

// Movement is the stock change of one ingredient. Quantity is positive.
type Movement struct {
	IngredientID string
	Quantity     float64
}

// Ledger owns ingredient stock counters and the stock movement ledger.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) GetIngredient(ctx context.Context, tenantID, id string) (*models.Ingredient, error) {
	var ing models.Ingredient
	err := l.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&ing).Error
	if err != nil {
		return nil, notFound(err, "ingredient %s not found", id)
	}
	return &ing, nil
}

// ApplyMovements applies a batch of entrada or salida movements atomically:
// either every counter changes and every ledger row is written, or nothing.
func (l *Ledger) ApplyMovements(ctx context.Context, tenantID string, movements []Movement, typ models.MovementType, reason string, orderID *string) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return applyMovements(tx, tenantID, movements, typ, reason, orderID)
	})
}

// Adjust applies a signed manual correction recorded as an ajuste movement.
func (l *Ledger) Adjust(ctx context.Context, tenantID, ingredientID string, delta float64, reason string) (*models.StockMovement, error) {
	if delta == 0 {
		return nil, apperr.BadRequest("adjustment delta must not be zero")
	}
	var movement models.StockMovement
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := ingredientStock(tx, tenantID, ingredientID)
		if err != nil {
			return err
		}
		res := tx.Model(&models.Ingredient{}).
			Where("tenant_id = ? AND id = ? AND stock + ? >= 0", tenantID, ingredientID, delta).
			Update("stock", gorm.Expr("stock + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Unprocessable("adjustment would leave negative stock (current %g, delta %g)", before, delta)
		}
		after, err := ingredientStock(tx, tenantID, ingredientID)
		if err != nil {
			return err
		}
		movement = models.StockMovement{
			TenantID:     tenantID,
			IngredientID: ingredientID,
			Type:         models.MovementAdjust,
			Quantity:     math.Abs(delta),
			StockBefore:  before,
			StockAfter:   after,
			Reason:       reason,
		}
		return tx.Create(&movement).Error
	})
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

// ListMovements returns the ledger rows of a tenant, optionally narrowed to
// one order, oldest first.
func (l *Ledger) ListMovements(ctx context.Context, tenantID, orderID string) ([]models.StockMovement, error) {
	q := l.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if orderID != "" {
		q = q.Where("order_id = ?", orderID)
	}
	var movements []models.StockMovement
	err := q.Order("created_at asc").Find(&movements).Error
	return movements, err
}

func applyMovements(tx *gorm.DB, tenantID string, movements []Movement, typ models.MovementType, reason string, orderID *string) error {
	if typ != models.MovementIn && typ != models.MovementOut {
		return apperr.BadRequest("movement type %q cannot be batched", typ)
	}
	// fixed lock order across concurrent batches
	sorted := append([]Movement(nil), movements...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].IngredientID < sorted[j].IngredientID })

	for _, m := range sorted {
		if m.Quantity <= 0 {
			continue
		}
		var ing models.Ingredient
		if err := tx.Where("tenant_id = ? AND id = ?", tenantID, m.IngredientID).First(&ing).Error; err != nil {
			return notFound(err, "ingredient %s not found", m.IngredientID)
		}

		q := tx.Model(&models.Ingredient{}).Where("tenant_id = ? AND id = ?", tenantID, m.IngredientID)
		var res *gorm.DB
		if typ == models.MovementOut {
			res = q.Where("stock >= ?", m.Quantity).Update("stock", gorm.Expr("stock - ?", m.Quantity))
		} else {
			res = q.Update("stock", gorm.Expr("stock + ?", m.Quantity))
		}
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Unprocessable("insufficient stock for %s: need %g, have %g", ing.Name, m.Quantity, ing.Stock)
		}

		after, err := ingredientStock(tx, tenantID, m.IngredientID)
		if err != nil {
			return err
		}
		before := after + m.Quantity
		if typ == models.MovementIn {
			before = after - m.Quantity
		}
		row := models.StockMovement{
			TenantID:     tenantID,
			IngredientID: m.IngredientID,
			Type:         typ,
			Quantity:     m.Quantity,
			StockBefore:  before,
			StockAfter:   after,
			Reason:       reason,
			OrderID:      orderID,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func ingredientStock(tx *gorm.DB, tenantID, id string) (float64, error) {
	var ing models.Ingredient
	if err := tx.Select("stock").Where("tenant_id = ? AND id = ?", tenantID, id).First(&ing).Error; err != nil {
		return 0, notFound(err, "ingredient %s not found", id)
	}
	return ing.Stock, nil
}
