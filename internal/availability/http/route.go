package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/availability")

	// Public: clients browse open dates before booking.
	group.GET("", h.Get)

	// Admin-only mutations.
	admin := group.Group("")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.POST("", h.Set)
		admin.POST("/block", h.Block)
		admin.DELETE("/:date", h.Delete)
	}
}
