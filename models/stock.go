package models

import "time"

type MovementType string

const (
	MovementIn     MovementType = "entrada"
	MovementOut    MovementType = "salida"
	MovementAdjust MovementType = "ajuste"
)

// StockMovement is an append-only ledger entry. Quantity is always
// positive; Type gives the direction (ajuste carries the signed delta in
// StockAfter - StockBefore).
type StockMovement struct {
	ID           string       `json:"id" gorm:"primaryKey;size:36"`
	TenantID     string       `json:"tenant_id" gorm:"size:36;not null;index"`
	IngredientID string       `json:"ingredient_id" gorm:"size:36;not null;index"`
	Type         MovementType `json:"type" gorm:"not null"`
	Quantity     float64      `json:"quantity" gorm:"not null"`
	StockBefore  float64      `json:"stock_before"`
	StockAfter   float64      `json:"stock_after"`
	Reason       string       `json:"reason"`
	OrderID      *string      `json:"order_id,omitempty" gorm:"size:36;index"`
	CreatedAt    time.Time    `json:"created_at"`
}

// CashClosure is the end-of-day cash register summary for one tenant.
type CashClosure struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	TenantID       string    `json:"tenant_id" gorm:"size:36;not null;uniqueIndex:idx_cash_closure_day"`
	Date           string    `json:"date" gorm:"size:10;not null;uniqueIndex:idx_cash_closure_day"`
	OrdersCount    int       `json:"orders_count"`
	CancelledCount int       `json:"cancelled_count"`
	Total          float64   `json:"total"`
	CashTotal      float64   `json:"cash_total"`
	TransferTotal  float64   `json:"transfer_total"`
	ClosedAt       time.Time `json:"closed_at"`
}
