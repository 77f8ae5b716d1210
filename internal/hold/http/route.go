package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/holds")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.POST("", h.Start)
		group.GET("/current", h.Current)
		group.PATCH("/current", h.UpdateAdvance)
		group.DELETE("/current", h.Abandon)
	}
}
