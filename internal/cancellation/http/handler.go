package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/cage-booking-backend/internal/auth"
	"github.com/nekogravitycat/cage-booking-backend/internal/cancellation"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/response"
)

type Handler struct {
	service cancellation.Service
}

func NewHandler(service cancellation.Service) *Handler {
	return &Handler{service: service}
}

// Request issues the confirmation token for cancelling a booking.
func (h *Handler) Request(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	ticket, err := h.service.Request(c.Request.Context(), uri.ID, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewTicketResponse(ticket))
}

// Confirm cancels the booking when the token from Request is presented.
func (h *Handler) Confirm(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	var req ConfirmCancellationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	cancelled, err := h.service.Confirm(c.Request.Context(), uri.ID, auth.GetUserID(c), req.Token)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewCancellationResponse(cancelled))
}
