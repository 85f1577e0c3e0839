package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/payments")

	// Public: clients pay deposits and the provider posts callbacks here.
	group.POST("/initialize", h.Initialize)
	group.POST("/retry", h.Retry)
	group.POST("/webhook", h.Webhook)
	group.GET("/verify/:reference", h.Verify)

	group.GET("/booking/:bookingId", authMiddleware, adminMiddleware, h.ListByBooking)
}
