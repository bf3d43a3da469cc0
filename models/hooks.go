package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (t *Tenant) BeforeCreate(*gorm.DB) error { ensureID(&t.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error { ensureID(&p.ID); return nil }
func (i *Ingredient) BeforeCreate(*gorm.DB) error { ensureID(&i.ID); return nil }
func (e *Extra) BeforeCreate(*gorm.DB) error { ensureID(&e.ID); return nil }
func (z *DeliveryZone) BeforeCreate(*gorm.DB) error { ensureID(&z.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error { ensureID(&o.ID); return nil }
func (i *OrderItem) BeforeCreate(*gorm.DB) error { ensureID(&i.ID); return nil }
func (m *StockMovement) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (u *User) BeforeCreate(*gorm.DB) error { ensureID(&u.ID); return nil }

// All lists every model for migrations.
func All() []interface{} {
	return []interface{}{
		&Tenant{},
		&User{},
		&Product{},
		&ProductIngredient{},
		&Ingredient{},
		&Extra{},
		&DeliveryZone{},
		&Order{},
		&OrderItem{},
		&OrderStatusHistory{},
		&StockMovement{},
		&CashClosure{},
	}
}
