package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/bookings")

	// Public: clients submit bookings and check their status by id.
	group.POST("", h.Create)
	group.GET("/:id", h.GetByID)

	group.GET("/:id/payment-details", authMiddleware, h.PaymentDetails)

	// Admin-only lifecycle management.
	admin := group.Group("")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.GET("", h.List)
		admin.PATCH("/:id", h.Update)
		admin.PATCH("/:id/status", h.UpdateStatus)
		admin.PATCH("/:id/cancel", h.Cancel)
	}
}
