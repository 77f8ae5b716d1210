package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/cage-booking-backend/internal/audit"
	"github.com/nekogravitycat/cage-booking-backend/internal/auth"
	"github.com/nekogravitycat/cage-booking-backend/internal/hold"
	"github.com/nekogravitycat/cage-booking-backend/internal/payment"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/response"
)

type Handler struct {
	holds       hold.Service
	coordinator *payment.Coordinator
	verifier    *payment.Verifier
}

func NewHandler(holds hold.Service, coordinator *payment.Coordinator, verifier *payment.Verifier) *Handler {
	return &Handler{holds: holds, coordinator: coordinator, verifier: verifier}
}

// CreateCheckoutSession starts payment of the caller's active hold.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	ctx := c.Request.Context()

	id := auth.IdentityFrom(c)
	if !id.SignedIn() {
		response.Error(c, payment.ErrNotSignedIn)
		return
	}

	var body CheckoutSessionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if !body.Complete() {
		response.Error(c, payment.ErrMissingFields.WithDetails(map[string]any{"received": body.Received()}))
		return
	}
	if *body.UserID != id.UserID {
		response.Error(c, payment.ErrIdentityMismatch)
		return
	}
	if id.Email == "" {
		id.Email = *body.UserEmail
	}

	held, err := h.holds.Current(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, hold.ErrNoActiveHold) {
			response.Error(c, payment.ErrHoldNotActive)
			return
		}
		response.Error(c, err)
		return
	}
	if held.SlotID != *body.SlotID || held.AreaID != *body.AreaID || held.Date != *body.Date || held.Price != *body.Price {
		response.Error(c, payment.ErrDetailsMismatch)
		return
	}
	if *body.DuePayment != hold.Due(*body.Price, *body.AdvancePayment) {
		response.Error(c, payment.ErrDueMismatch)
		return
	}

	held, err = h.holds.SetAdvance(ctx, id.UserID, *body.AdvancePayment)
	if err != nil {
		response.Error(c, err)
		return
	}

	ref, err := h.coordinator.CreateCheckoutSession(ctx, held, id, audit.Client(c.Request.UserAgent()))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, CheckoutSessionResponse{ID: ref.ID})
}

// VerifyCheckoutSession resolves the session id the gateway redirected back with.
func (h *Handler) VerifyCheckoutSession(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		sessionID = c.Query("session_id")
	}

	res, err := h.verifier.Verify(c.Request.Context(), auth.IdentityFrom(c), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewVerifyResponse(res))
}
