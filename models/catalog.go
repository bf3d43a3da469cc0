package models

import "time"

type Product struct {
	ID          string              `json:"id" gorm:"primaryKey;size:36"`
	TenantID    string              `json:"tenant_id" gorm:"size:36;not null;index"`
	Name        string              `json:"name" gorm:"not null"`
	Description string              `json:"description"`
	Price       float64             `json:"price" gorm:"not null"`
	Available   bool                `json:"available"`
	Position    int                 `json:"position"`
	Ingredients []ProductIngredient `json:"ingredients,omitempty" gorm:"foreignKey:ProductID"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// ProductIngredient links a product to an ingredient of its recipe.
type ProductIngredient struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	ProductID    string  `json:"product_id" gorm:"size:36;not null;index"`
	IngredientID string  `json:"ingredient_id" gorm:"size:36;not null"`
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	IsRemovable  bool    `json:"is_removable"`
	IsExtra      bool    `json:"is_extra"`
	ExtraPrice   float64 `json:"extra_price"`
}

// AddQuantity is what one "add" customization consumes per product unit.
func (pi ProductIngredient) AddQuantity() float64 {
	if pi.Quantity > 0 {
		return pi.Quantity
	}
	return 1
}

func (p *Product) Removable() []ProductIngredient {
	var out []ProductIngredient
	for _, ing := range p.Ingredients {
		if ing.IsRemovable {
			out = append(out, ing)
		}
	}
	return out
}

func (p *Product) Addable() []ProductIngredient {
	var out []ProductIngredient
	for _, ing := range p.Ingredients {
		if ing.IsExtra {
			out = append(out, ing)
		}
	}
	return out
}

func (p *Product) Ingredient(id string) (ProductIngredient, bool) {
	for _, ing := range p.Ingredients {
		if ing.IngredientID == id {
			return ing, true
		}
	}
	return ProductIngredient{}, false
}

type Ingredient struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	TenantID  string    `json:"tenant_id" gorm:"size:36;not null;index"`
	Name      string    `json:"name" gorm:"not null"`
	Unit      string    `json:"unit"`
	Stock     float64   `json:"stock" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Extra is an add-on sold alongside a product, optionally consuming an
// ingredient.
type Extra struct {
	ID            string    `json:"id" gorm:"primaryKey;size:36"`
	TenantID      string    `json:"tenant_id" gorm:"size:36;not null;index"`
	Name          string    `json:"name" gorm:"not null"`
	Price         float64   `json:"price" gorm:"not null"`
	Active        bool      `json:"active"`
	IngredientID  *string   `json:"ingredient_id,omitempty" gorm:"size:36"`
	StockQuantity float64   `json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type DeliveryZone struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	TenantID  string    `json:"tenant_id" gorm:"size:36;not null;index"`
	Name      string    `json:"name" gorm:"not null"`
	Price     float64   `json:"price" gorm:"not null"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
