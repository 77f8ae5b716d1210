package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/cage-booking-backend/internal/auth"
	"github.com/nekogravitycat/cage-booking-backend/internal/hold"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/clock"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/response"
)

type Handler struct {
	service hold.Service
	clock   clock.Clock
}

func NewHandler(service hold.Service, clk clock.Clock) *Handler {
	return &Handler{service: service, clock: clk}
}

func (h *Handler) Start(c *gin.Context) {
	var body StartHoldRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	id := auth.IdentityFrom(c)
	held, err := h.service.Start(c.Request.Context(), hold.StartRequest{
		UserID:    id.UserID,
		UserEmail: id.Email,
		SlotID:    body.SlotID,
		AreaID:    body.AreaID,
		Date:      body.Date,
		Price:     body.Price,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewHoldResponse(held, h.clock.Now()))
}

func (h *Handler) Current(c *gin.Context) {
	held, err := h.service.Current(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewHoldResponse(held, h.clock.Now()))
}

func (h *Handler) UpdateAdvance(c *gin.Context) {
	var body UpdateAdvanceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	held, err := h.service.SetAdvance(c.Request.Context(), auth.GetUserID(c), body.AdvancePayment)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewHoldResponse(held, h.clock.Now()))
}

func (h *Handler) Abandon(c *gin.Context) {
	if err := h.service.Abandon(c.Request.Context(), auth.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
