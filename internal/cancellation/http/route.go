package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	bookings := g.Group("/bookings")

	// === Authenticated Routes ===
	authed := bookings.Group("")
	authed.Use(authMiddleware)
	{
		authed.POST("/:id/cancellation", h.Request)
		authed.DELETE("/:id", h.Confirm)
	}
}
