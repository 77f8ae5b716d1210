package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/cage-booking-backend/internal/auth"
	"github.com/nekogravitycat/cage-booking-backend/internal/booking"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/response"
)

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

// ListByDate returns the occupancy of every slot on the requested date.
func (h *Handler) ListByDate(c *gin.Context) {
	var req ListByDateRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}

	bookings, err := h.service.ListForDate(c.Request.Context(), req.Date)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]OccupancyResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewOccupancyResponse(b)
	}
	c.JSON(http.StatusOK, items)
}

// ListMine returns the signed-in user's bookings, newest date first.
func (h *Handler) ListMine(c *gin.Context) {
	var req ListMyBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}
	req.Normalize()

	bookings, total, err := h.service.List(c.Request.Context(), booking.Filter{
		UserID:   auth.GetUserID(c),
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}
