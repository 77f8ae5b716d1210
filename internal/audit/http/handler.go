package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/cage-booking-backend/internal/audit"
	"github.com/nekogravitycat/cage-booking-backend/internal/auth"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/response"
)

type Handler struct {
	repo audit.Repository
}

func NewHandler(repo audit.Repository) *Handler {
	return &Handler{repo: repo}
}

// ListMine returns the signed-in user's recent booking attempts, newest first.
// Internal detail such as gateway error text is not exposed.
func (h *Handler) ListMine(c *gin.Context) {
	var req ListActivityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	entries, err := h.repo.ListByUser(c.Request.Context(), auth.GetUserID(c), req.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]EntryResponse, len(entries))
	for i, e := range entries {
		items[i] = NewEntryResponse(e)
	}
	c.JSON(http.StatusOK, items)
}
