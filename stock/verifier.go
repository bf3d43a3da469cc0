package stock

import (
	"context"
	"fmt"
	"strconv"

	"food-order-bot/apperr"
	"food-order-bot/models"
	"food-order-bot/pricing"

	"github.com/sirupsen/logrus"
)

type Ingredients interface {
	GetIngredient(ctx context.Context, tenantID, id string) (*models.Ingredient, error)
}

// Result of a verification. Issues are customer-facing.
type Result struct {
	OK     bool
	Issues []string
}

// Verifier checks a cart against the current catalog and live stock without
// reserving anything.
type Verifier struct {
	catalog     pricing.Catalog
	ingredients Ingredients
	failOpen    bool
	log         *logrus.Entry
}

// NewVerifier builds a verifier. With failOpen set, an ingredient that cannot
// be looked up is treated as unconstrained instead of blocking the order.
func NewVerifier(catalog pricing.Catalog, ingredients Ingredients, failOpen bool, log *logrus.Entry) *Verifier {
	return &Verifier{catalog: catalog, ingredients: ingredients, failOpen: failOpen, log: log}
}

// Verify re-resolves every line against the current product definitions and
// compares the aggregated demand with live stock. A returned error means the
// check itself could not run.
func (v *Verifier) Verify(ctx context.Context, tenantID string, lines []pricing.Line) (Result, error) {
	var issues []string
	var items []models.OrderItem
	for _, line := range lines {
		built, err := pricing.BuildItems(ctx, v.catalog, tenantID, []pricing.Line{line})
		if err != nil {
			if !apperr.IsDomain(err) {
				return Result{}, fmt.Errorf("verify stock: %w", err)
			}
			issues = append(issues, "Uno de los productos de tu pedido ya no está disponible.")
			continue
		}
		items = append(items, built...)
	}

	req := ForItems(items)
	for _, id := range req.IngredientIDs() {
		need := req[id]
		ing, err := v.ingredients.GetIngredient(ctx, tenantID, id)
		if err != nil {
			if v.failOpen {
				v.log.WithError(err).WithFields(logrus.Fields{
					"tenant_id":     tenantID,
					"ingredient_id": id,
				}).Warn("ingredient lookup failed, skipping stock constraint")
				continue
			}
			if !apperr.IsNotFound(err) {
				return Result{}, fmt.Errorf("verify stock: %w", err)
			}
			issues = append(issues, "No pudimos verificar el stock de un ingrediente.")
			continue
		}
		if ing.Stock < need {
			issues = append(issues, fmt.Sprintf("No hay stock suficiente de %s (se necesitan %s, quedan %s).",
				ing.Name, formatQty(need), formatQty(ing.Stock)))
		}
	}
	return Result{OK: len(issues) == 0, Issues: issues}, nil
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
