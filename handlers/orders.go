package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"food-order-bot/middleware"
	"food-order-bot/models"
	"food-order-bot/orders"
	"food-order-bot/statemachine"
	"food-order-bot/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

type OrderService interface {
	Create(ctx context.Context, in orders.CreateInput) (*models.Order, error)
	Get(ctx context.Context, tenantID, id string) (*models.Order, error)
	List(ctx context.Context, tenantID string, f store.OrderFilter) ([]models.Order, error)
	ListPending(ctx context.Context, tenantID string) ([]models.Order, error)
	Update(ctx context.Context, tenantID, id string, p orders.Patch) (*models.Order, error)
	Confirm(ctx context.Context, tenantID, id, changedBy string) (*models.Order, error)
	Cancel(ctx context.Context, tenantID, id, changedBy, reason string) (*models.Order, error)
	ApprovePayment(ctx context.Context, tenantID, id, changedBy string) (*models.Order, error)
	RejectPayment(ctx context.Context, tenantID, id, changedBy string) (*models.Order, error)
	Stats(ctx context.Context, tenantID string, from, to time.Time) (*orders.Stats, error)
	DayBounds(date time.Time) (time.Time, time.Time)
	Location() *time.Location
}

type OrderHandler struct {
	orders OrderService
	log    *logrus.Entry
}

func NewOrderHandler(svc OrderService, log *logrus.Entry) *OrderHandler {
	return &OrderHandler{orders: svc, log: log}
}

func (h *OrderHandler) fail(c *gin.Context, err error, op string) {
	respondError(c, h.log, err, logrus.Fields{
		"operation": op,
		"tenant_id": middleware.GetTenantID(c),
		"order_id":  c.Param("id"),
	})
}

// ListOrders returns the tenant's orders, newest first. Supports
// ?status=a,b, ?date=YYYY-MM-DD and ?limit=N.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var f store.OrderFilter
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := models.OrderStatus(strings.TrimSpace(s))
			if !statemachine.IsKnown(status) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + string(status)})
				return
			}
			f.Statuses = append(f.Statuses, status)
		}
	}
	if raw := c.Query("date"); raw != "" {
		day, err := time.ParseInLocation(dateLayout, raw, h.orders.Location())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		f.From, f.To = h.orders.DayBounds(day)
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		f.Limit = limit
	}

	list, err := h.orders.List(c.Request.Context(), middleware.GetTenantID(c), f)
	if err != nil {
		h.fail(c, err, "list orders")
		return
	}

	summary := map[string]int{}
	for _, o := range list {
		summary[string(o.Status)]++
	}
	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"count":         len(list),
		"orders":        list,
	})
}

// ListPending returns the orders still waiting on the kitchen or on payment.
func (h *OrderHandler) ListPending(c *gin.Context) {
	list, err := h.orders.ListPending(c.Request.Context(), middleware.GetTenantID(c))
	if err != nil {
		h.fail(c, err, "list pending orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "orders": list})
}

// GetStats aggregates ?from..?to (inclusive days, default today).
func (h *OrderHandler) GetStats(c *gin.Context) {
	loc := h.orders.Location()
	today := time.Now().In(loc).Format(dateLayout)
	fromDay, err := time.ParseInLocation(dateLayout, c.DefaultQuery("from", today), loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
		return
	}
	toDay, err := time.ParseInLocation(dateLayout, c.DefaultQuery("to", fromDay.Format(dateLayout)), loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
		return
	}
	from, _ := h.orders.DayBounds(fromDay)
	_, to := h.orders.DayBounds(toDay)

	stats, err := h.orders.Stats(c.Request.Context(), middleware.GetTenantID(c), from, to)
	if err != nil {
		h.fail(c, err, "order stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// GetOrder returns one order with items and status history
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), middleware.GetTenantID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "get order")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":             order,
		"valid_next_states": statemachine.ValidTransitionsFrom(order.Status),
	})
}

// CreateOrder places an order taken by staff, e.g. over the phone.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var in orders.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	in.TenantID = middleware.GetTenantID(c)
	in.ChangedBy = middleware.GetUserID(c)

	order, err := h.orders.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err, "create order")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order placed", "order": order})
}

// UpdateOrder applies a partial update. A status in the body goes through
// the same transition rules as the dedicated endpoints.
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var p orders.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	p.ChangedBy = middleware.GetUserID(c)

	order, err := h.orders.Update(c.Request.Context(), middleware.GetTenantID(c), c.Param("id"), p)
	if err != nil {
		h.fail(c, err, "update order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *OrderHandler) ConfirmOrder(c *gin.Context) {
	order, err := h.orders.Confirm(c.Request.Context(), middleware.GetTenantID(c), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		h.fail(c, err, "confirm order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order confirmed", "order": order})
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	var req CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	order, err := h.orders.Cancel(c.Request.Context(), middleware.GetTenantID(c), c.Param("id"),
		middleware.GetUserID(c), req.Reason)
	if err != nil {
		h.fail(c, err, "cancel order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled", "order": order})
}

func (h *OrderHandler) ApprovePayment(c *gin.Context) {
	order, err := h.orders.ApprovePayment(c.Request.Context(), middleware.GetTenantID(c), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		h.fail(c, err, "approve payment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment approved", "order": order})
}

func (h *OrderHandler) RejectPayment(c *gin.Context) {
	order, err := h.orders.RejectPayment(c.Request.Context(), middleware.GetTenantID(c), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		h.fail(c, err, "reject payment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment rejected", "order": order})
}
