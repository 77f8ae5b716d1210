package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	// === Public Routes ===
	g.GET("/bookings", h.ListByDate)

	// === Authenticated Routes ===
	me := g.Group("/me")
	me.Use(authMiddleware)
	{
		me.GET("/bookings", h.ListMine)
	}
}
