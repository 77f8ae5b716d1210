package http

import (
	bookingHttp "github.com/nekogravitycat/cage-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/cage-booking-backend/internal/payment"
)

// CheckoutSessionRequest is the checkout body. Fields are pointers so that an
// absent field can be told apart from a zero value.
type CheckoutSessionRequest struct {
	UserEmail      *string `json:"userEmail"`
	UserID         *string `json:"user_id"`
	SlotID         *string `json:"slot_id"`
	AreaID         *string `json:"area_id"`
	Date           *string `json:"date"`
	Price          *int64  `json:"price"`
	AdvancePayment *int64  `json:"advance_payment"`
	DuePayment     *int64  `json:"due_payment"`
}

// Received reports which fields were sent with a value.
func (r *CheckoutSessionRequest) Received() map[string]bool {
	str := func(p *string) bool { return p != nil && *p != "" }
	return map[string]bool{
		"userEmail":       str(r.UserEmail),
		"user_id":         str(r.UserID),
		"slot_id":         str(r.SlotID),
		"area_id":         str(r.AreaID),
		"date":            str(r.Date),
		"price":           r.Price != nil,
		"advance_payment": r.AdvancePayment != nil,
		"due_payment":     r.DuePayment != nil,
	}
}

// Complete reports whether every field was sent.
func (r *CheckoutSessionRequest) Complete() bool {
	for _, ok := range r.Received() {
		if !ok {
			return false
		}
	}
	return true
}

// CheckoutSessionResponse carries only the session id; the client redirects
// with Stripe.js redirectToCheckout.
type CheckoutSessionResponse struct {
	ID string `json:"id"`
}

type VerifyResponse struct {
	Success       bool                         `json:"success"`
	Paid          bool                         `json:"paid"`
	PaymentStatus string                       `json:"payment_status"`
	Booking       *bookingHttp.BookingResponse `json:"booking,omitempty"`
	NextStep      string                       `json:"next_step,omitempty"`
}

func NewVerifyResponse(r *payment.Result) VerifyResponse {
	resp := VerifyResponse{
		Success:       true,
		Paid:          r.Paid,
		PaymentStatus: r.RawStatus,
		NextStep:      r.NextStep(),
	}
	if r.Booking != nil {
		b := bookingHttp.NewBookingResponse(r.Booking)
		resp.Booking = &b
	}
	return resp
}
