package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	// === Authenticated Routes ===
	me := g.Group("/me")
	me.Use(authMiddleware)
	{
		me.GET("/activity", h.ListMine)
	}
}
