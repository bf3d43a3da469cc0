package routes

import (
	"food-order-bot/handlers"
	"food-order-bot/middleware"
	"food-order-bot/models"

	"github.com/gin-gonic/gin"
)

// Handlers are the controllers mounted by SetupRoutes.
type Handlers struct {
	Auth    *middleware.Auth
	Login   *handlers.AuthHandler
	Orders  *handlers.OrderHandler
	Stock   *handlers.StockHandler
	Webhook *handlers.WebhookHandler
}

func SetupRoutes(r *gin.Engine, h Handlers) {
	// ── Channel webhook ────────────────────────────────────────────
	r.GET("/webhook", h.Webhook.Verify)
	r.POST("/webhook", h.Webhook.Receive)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/login", h.Login.Login)
		public.GET("/state-machine", handlers.GetStateMachineInfo)
	}

	// ── Staff routes ───────────────────────────────────────────────
	staff := r.Group("/api")
	staff.Use(h.Auth.AuthRequired(), middleware.RoleRequired(models.RoleStaff, models.RoleAdmin))
	{
		staff.GET("/profile", h.Login.GetProfile)

		staff.GET("/orders", h.Orders.ListOrders)
		staff.GET("/orders/pending", h.Orders.ListPending)
		staff.GET("/orders/stats", h.Orders.GetStats)
		staff.POST("/orders", h.Orders.CreateOrder)
		staff.GET("/orders/:id", h.Orders.GetOrder)
		staff.PATCH("/orders/:id", h.Orders.UpdateOrder)
		staff.PUT("/orders/:id/confirm", h.Orders.ConfirmOrder)
		staff.PUT("/orders/:id/cancel", h.Orders.CancelOrder)
		staff.PUT("/orders/:id/payment/approve", h.Orders.ApprovePayment)
		staff.PUT("/orders/:id/payment/reject", h.Orders.RejectPayment)

		staff.GET("/stock/movements", h.Stock.ListMovements)
		staff.GET("/ingredients/:id", h.Stock.GetIngredient)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(h.Auth.AuthRequired(), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.POST("/ingredients/:id/adjust", h.Stock.AdjustStock)
	}
}
