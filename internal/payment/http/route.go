package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts checkout endpoints. optionalAuth lets anonymous callers
// reach the handler so they get the "must be signed in" payment error.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, optionalAuth, authMiddleware gin.HandlerFunc) {
	group := g.Group("/checkout-session")

	group.POST("", optionalAuth, h.CreateCheckoutSession)

	// === Authenticated Routes ===
	group.GET("", authMiddleware, h.VerifyCheckoutSession)
	group.GET("/:id", authMiddleware, h.VerifyCheckoutSession)
}
