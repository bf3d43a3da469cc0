package pricing

import (
	"context"

	"food-order-bot/apperr"
	"food-order-bot/models"
)

const (
	MinQuantity = 1
	MaxQuantity = 10
)

// Catalog is the slice of the catalog snapshot provider pricing needs.
type Catalog interface {
	GetProductByID(ctx context.Context, tenantID, id string) (*models.Product, error)
	ListActiveExtras(ctx context.Context, tenantID string) ([]models.Extra, error)
}

// Line is an unpriced cart line referencing catalog ids.
type Line struct {
	ProductID      string              `json:"product_id" validate:"required"`
	Quantity       int                 `json:"quantity" validate:"min=1,max=10"`
	Customizations []LineCustomization `json:"customizations" validate:"dive"`
	Extras         []LineExtra         `json:"extras" validate:"dive"`
	Notes          string              `json:"notes"`
}

type LineCustomization struct {
	IngredientID string                   `json:"ingredient_id" validate:"required"`
	Type         models.CustomizationType `json:"type" validate:"oneof=add remove"`
}

type LineExtra struct {
	ExtraID  string `json:"extra_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

// BuildItems resolves lines against the current catalog and returns priced
// snapshots, including the recipe each unit consumes.
func BuildItems(ctx context.Context, catalog Catalog, tenantID string, lines []Line) ([]models.OrderItem, error) {
	var extras map[string]models.Extra
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < MinQuantity || line.Quantity > MaxQuantity {
			return nil, apperr.BadRequest("quantity must be between %d and %d", MinQuantity, MaxQuantity)
		}
		product, err := catalog.GetProductByID(ctx, tenantID, line.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.Available {
			return nil, apperr.Unprocessable("product %s is not available", product.Name)
		}

		customizations, err := resolveCustomizations(product, line.Customizations)
		if err != nil {
			return nil, err
		}

		if len(line.Extras) > 0 && extras == nil {
			list, err := catalog.ListActiveExtras(ctx, tenantID)
			if err != nil {
				return nil, err
			}
			extras = make(map[string]models.Extra, len(list))
			for _, e := range list {
				extras[e.ID] = e
			}
		}
		selected, err := resolveExtras(extras, line.Extras)
		if err != nil {
			return nil, err
		}

		item := models.OrderItem{
			ProductID:      product.ID,
			ProductName:    product.Name,
			UnitPrice:      product.Price,
			Quantity:       line.Quantity,
			Customizations: customizations,
			Extras:         selected,
			Recipe:         Recipe(product),
			Notes:          line.Notes,
		}
		item.ItemTotal = ItemTotal(item.UnitPrice, item.Customizations, item.Extras, item.Quantity)
		items = append(items, item)
	}
	return items, nil
}

// Recipe is the base consumption of one product unit.
func Recipe(product *models.Product) []models.RecipeLine {
	var recipe []models.RecipeLine
	for _, ing := range product.Ingredients {
		if ing.Quantity > 0 {
			recipe = append(recipe, models.RecipeLine{IngredientID: ing.IngredientID, Quantity: ing.Quantity})
		}
	}
	return recipe
}

func resolveCustomizations(product *models.Product, lines []LineCustomization) ([]models.Customization, error) {
	var out []models.Customization
	seen := map[LineCustomization]bool{}
	for _, lc := range lines {
		if seen[lc] {
			continue
		}
		seen[lc] = true
		ing, ok := product.Ingredient(lc.IngredientID)
		if !ok {
			return nil, apperr.BadRequest("ingredient %s is not part of %s", lc.IngredientID, product.Name)
		}
		c := models.Customization{IngredientID: ing.IngredientID, IngredientName: ing.Name, Type: lc.Type}
		switch lc.Type {
		case models.CustomizationAdd:
			if !ing.IsExtra {
				return nil, apperr.BadRequest("%s cannot be added to %s", ing.Name, product.Name)
			}
			c.ExtraPrice = ing.ExtraPrice
			c.StockQuantity = ing.AddQuantity()
		case models.CustomizationRemove:
			if !ing.IsRemovable {
				return nil, apperr.BadRequest("%s cannot be removed from %s", ing.Name, product.Name)
			}
		default:
			return nil, apperr.BadRequest("unknown customization type %q", lc.Type)
		}
		out = append(out, c)
	}
	return out, nil
}

func resolveExtras(active map[string]models.Extra, lines []LineExtra) ([]models.SelectedExtra, error) {
	var out []models.SelectedExtra
	index := map[string]int{}
	for _, le := range lines {
		if le.Quantity < 1 {
			return nil, apperr.BadRequest("extra quantity must be positive")
		}
		if i, ok := index[le.ExtraID]; ok {
			out[i].Quantity += le.Quantity
			continue
		}
		extra, ok := active[le.ExtraID]
		if !ok {
			return nil, apperr.NotFound("extra %s not found", le.ExtraID)
		}
		sel := models.SelectedExtra{
			ExtraID:   extra.ID,
			Name:      extra.Name,
			UnitPrice: extra.Price,
			Quantity:  le.Quantity,
		}
		if extra.IngredientID != nil {
			sel.IngredientID = *extra.IngredientID
			sel.StockQuantity = extra.StockQuantity
		}
		index[le.ExtraID] = len(out)
		out = append(out, sel)
	}
	return out, nil
}
