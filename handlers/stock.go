package handlers

import (
	"context"
	"net/http"

	"food-order-bot/middleware"
	"food-order-bot/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type StockLedger interface {
	GetIngredient(ctx context.Context, tenantID, id string) (*models.Ingredient, error)
	Adjust(ctx context.Context, tenantID, ingredientID string, delta float64, reason string) (*models.StockMovement, error)
	ListMovements(ctx context.Context, tenantID, orderID string) ([]models.StockMovement, error)
}

type StockHandler struct {
	ledger StockLedger
	log    *logrus.Entry
}

func NewStockHandler(ledger StockLedger, log *logrus.Entry) *StockHandler {
	return &StockHandler{ledger: ledger, log: log}
}

func (h *StockHandler) GetIngredient(c *gin.Context) {
	ing, err := h.ledger.GetIngredient(c.Request.Context(), middleware.GetTenantID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, logrus.Fields{"operation": "get ingredient", "ingredient_id": c.Param("id")})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredient": ing})
}

type AdjustStockRequest struct {
	Delta  float64 `json:"delta" binding:"required"`
	Reason string  `json:"reason" binding:"required"`
}

// AdjustStock records a manual correction (count, waste, purchase) as an
// ajuste movement.
func (h *StockHandler) AdjustStock(c *gin.Context) {
	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	tenantID := middleware.GetTenantID(c)
	movement, err := h.ledger.Adjust(c.Request.Context(), tenantID, c.Param("id"), req.Delta,
		req.Reason+" ("+middleware.GetUserID(c)+")")
	if err != nil {
		respondError(c, h.log, err, logrus.Fields{"operation": "adjust stock", "tenant_id": tenantID, "ingredient_id": c.Param("id")})
		return
	}
	h.log.WithFields(logrus.Fields{
		"tenant_id":     tenantID,
		"ingredient_id": movement.IngredientID,
		"stock_before":  movement.StockBefore,
		"stock_after":   movement.StockAfter,
	}).Info("stock adjusted")
	c.JSON(http.StatusOK, gin.H{"movement": movement})
}

// ListMovements returns the stock ledger, narrowed with ?order_id=.
func (h *StockHandler) ListMovements(c *gin.Context) {
	movements, err := h.ledger.ListMovements(c.Request.Context(), middleware.GetTenantID(c), c.Query("order_id"))
	if err != nil {
		respondError(c, h.log, err, logrus.Fields{"operation": "list movements"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(movements), "movements": movements})
}
