package http

import (
	"math"
	"time"

	"github.com/nekogravitycat/cage-booking-backend/internal/hold"
)

type StartHoldRequest struct {
	SlotID string `json:"slot_id"`
	AreaID string `json:"area_id"`
	Date   string `json:"date"`
	Price  int64  `json:"price"`
}

// UpdateAdvanceRequest takes the advance as sent by the form, number or string.
type UpdateAdvanceRequest struct {
	AdvancePayment any `json:"advance_payment"`
}

type HoldResponse struct {
	ID               string            `json:"id"`
	AreaID           string            `json:"area_id"`
	AreaName         string            `json:"area_name"`
	SlotID           string            `json:"slot_id"`
	Date             string            `json:"date"`
	StartTime        string            `json:"start_time"`
	EndTime          string            `json:"end_time"`
	Price            int64             `json:"price"`
	AdvancePayment   int64             `json:"advance_payment"`
	DuePayment       int64             `json:"due_payment"`
	State            string            `json:"state"`
	RemainingSeconds int               `json:"remaining_seconds"`
	ExpiresAt        time.Time         `json:"expires_at"`
	CanPay           bool              `json:"can_pay"`
	ContextErrors    []string          `json:"context_errors,omitempty"`
	FieldErrors      map[string]string `json:"field_errors,omitempty"`
}

func NewHoldResponse(h *hold.Hold, now time.Time) HoldResponse {
	problems := h.ContextProblems()

	var fieldErrors map[string]string
	if h.AdvancePayment != 0 {
		if msg := h.AdvanceProblem(); msg != "" {
			fieldErrors = map[string]string{"advance_payment": msg}
		}
	}

	return HoldResponse{
		ID:               h.ID,
		AreaID:           h.AreaID,
		AreaName:         h.AreaName,
		SlotID:           h.SlotID,
		Date:             h.Date,
		StartTime:        h.StartTime,
		EndTime:          h.EndTime,
		Price:            h.Price,
		AdvancePayment:   h.AdvancePayment,
		DuePayment:       h.DuePayment,
		State:            string(h.State),
		RemainingSeconds: int(math.Ceil(h.Remaining(now).Seconds())),
		ExpiresAt:        h.ExpiresAt,
		CanPay:           len(problems) == 0 && h.AdvanceProblem() == "" && h.IsActive(now),
		ContextErrors:    problems,
		FieldErrors:      fieldErrors,
	}
}
