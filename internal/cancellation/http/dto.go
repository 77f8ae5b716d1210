package http

import (
	"time"

	"github.com/nekogravitycat/cage-booking-backend/internal/booking"
	"github.com/nekogravitycat/cage-booking-backend/internal/cancellation"
)

type ConfirmCancellationRequest struct {
	Token string `form:"confirm"`
}

type TicketResponse struct {
	BookingID string    `json:"booking_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewTicketResponse(t *cancellation.Ticket) TicketResponse {
	return TicketResponse{BookingID: t.BookingID, Token: t.Token, ExpiresAt: t.ExpiresAt}
}

type CancellationResponse struct {
	ID           string    `json:"id"`
	BookingID    string    `json:"booking_id"`
	SlotID       string    `json:"slot_id"`
	AreaID       string    `json:"area_id"`
	Date         string    `json:"date"`
	RefundAmount int64     `json:"refund_amount"`
	RefundDueBy  time.Time `json:"refund_due_by"`
	RefundStatus string    `json:"refund_status"`
	CancelledAt  time.Time `json:"cancelled_at"`
}

func NewCancellationResponse(c *booking.Cancellation) CancellationResponse {
	return CancellationResponse{
		ID:           c.ID,
		BookingID:    c.BookingID,
		SlotID:       c.SlotID,
		AreaID:       c.AreaID,
		Date:         c.Date,
		RefundAmount: c.RefundAmount,
		RefundDueBy:  c.RefundDueBy,
		RefundStatus: string(c.RefundStatus),
		CancelledAt:  c.CancelledAt,
	}
}
