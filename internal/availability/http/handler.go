package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/cage-booking-backend/internal/availability"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/response"
)

type Handler struct {
	service availability.Service
}

func NewHandler(service availability.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListSlots(c *gin.Context) {
	var req ListSlotsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "area is required"})
		return
	}
	ctx := c.Request.Context()

	if req.Date == "" {
		slots, err := h.service.ListSlots(ctx, req.Area)
		if err != nil {
			response.Error(c, err)
			return
		}
		items := make([]SlotResponse, len(slots))
		for i, s := range slots {
			items[i] = NewSlotResponse(s)
		}
		c.JSON(http.StatusOK, items)
		return
	}

	available, err := h.service.Available(ctx, req.Area, availability.Query{
		Date:  req.Date,
		Start: req.Start,
		End:   req.End,
		Price: req.Price,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]AvailableSlotResponse, len(available))
	for i, s := range available {
		items[i] = NewAvailableSlotResponse(s)
	}
	c.JSON(http.StatusOK, items)
}
