package payment

import (
	"net/http"
	"strconv"

	"github.com/nekogravitycat/cage-booking-backend/internal/booking"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotSignedIn        = apperror.New(http.StatusUnauthorized, "must be signed in")
	ErrIdentityMismatch   = apperror.New(http.StatusForbidden, "user does not match the signed-in account")
	ErrMissingFields      = apperror.New(http.StatusBadRequest, "missing required fields")
	ErrInvalidContext     = apperror.New(http.StatusUnprocessableEntity, "booking details are incomplete")
	ErrDueMismatch        = apperror.New(http.StatusUnprocessableEntity, "due payment must equal price minus advance payment")
	ErrHoldNotActive      = apperror.New(http.StatusConflict, "hold is not active, please select a slot again")
	ErrDetailsMismatch    = apperror.New(http.StatusConflict, "checkout details do not match the active hold")
	ErrCheckoutFailed     = apperror.New(http.StatusBadGateway, "failed to create checkout session")
	ErrGatewayUnavailable = apperror.New(http.StatusServiceUnavailable, "payment gateway unavailable, please retry")

	ErrMissingSession     = apperror.New(http.StatusBadRequest, "payment status unknown: no checkout session id")
	ErrVerificationFailed = apperror.New(http.StatusBadGateway, "could not verify payment, please contact support")
	ErrSessionNotOwned    = apperror.New(http.StatusForbidden, "checkout session belongs to another user")
	ErrPaidSlotTaken      = apperror.New(http.StatusConflict, "slot was booked by someone else while you paid, please contact support for a refund")
)

// NextStepFeedback is where the user goes after a confirmed booking.
const NextStepFeedback = "feedback"

// Intent is the payload a checkout session is created for. Field keys match the
// checkout request body and the session metadata.
type Intent struct {
	UserEmail      string
	UserID         string
	SlotID         string
	AreaID         string
	Date           string
	Price          int64
	AdvancePayment int64
	DuePayment     int64
}

// Received reports, per field, whether the intent carries a usable value.
func (i Intent) Received() map[string]bool {
	return map[string]bool{
		"userEmail":       i.UserEmail != "",
		"user_id":         i.UserID != "",
		"slot_id":         i.SlotID != "",
		"area_id":         i.AreaID != "",
		"date":            i.Date != "",
		"price":           i.Price > 0,
		"advance_payment": i.AdvancePayment > 0 && i.AdvancePayment <= i.Price,
		"due_payment":     i.DuePayment >= 0 && i.AdvancePayment+i.DuePayment == i.Price,
	}
}

// Complete reports whether every field was received.
func (i Intent) Complete() bool {
	for _, ok := range i.Received() {
		if !ok {
			return false
		}
	}
	return true
}

func (i Intent) Metadata() map[string]string {
	return map[string]string{
		"userEmail":       i.UserEmail,
		"user_id":         i.UserID,
		"slot_id":         i.SlotID,
		"area_id":         i.AreaID,
		"date":            i.Date,
		"price":           strconv.FormatInt(i.Price, 10),
		"advance_payment": strconv.FormatInt(i.AdvancePayment, 10),
		"due_payment":     strconv.FormatInt(i.DuePayment, 10),
	}
}

// IntentFromMetadata rebuilds an intent from session metadata. Unreadable
// amounts come back as zero and fail Complete.
func IntentFromMetadata(md map[string]string) Intent {
	num := func(k string) int64 {
		n, _ := strconv.ParseInt(md[k], 10, 64)
		return n
	}
	return Intent{
		UserEmail:      md["userEmail"],
		UserID:         md["user_id"],
		SlotID:         md["slot_id"],
		AreaID:         md["area_id"],
		Date:           md["date"],
		Price:          num("price"),
		AdvancePayment: num("advance_payment"),
		DuePayment:     num("due_payment"),
	}
}

func (i Intent) finalizeRequest(sessionID string) booking.FinalizeRequest {
	return booking.FinalizeRequest{
		UserID:         i.UserID,
		UserEmail:      i.UserEmail,
		SlotID:         i.SlotID,
		AreaID:         i.AreaID,
		Date:           i.Date,
		Price:          i.Price,
		AdvancePayment: i.AdvancePayment,
		DuePayment:     i.DuePayment,
		SessionID:      sessionID,
	}
}

// SessionRef points the browser at a created checkout session.
type SessionRef struct {
	ID string
}

// Session is the gateway's view of a checkout session.
type Session struct {
	ID     string
	Paid   bool
	Status string
	Intent Intent
}

// Result is the outcome of verifying a checkout session.
type Result struct {
	Paid        bool
	RawStatus   string
	Booking     *booking.Booking
	Created     bool
	HoldCleared bool
}

// NextStep is the follow-up page for the result, empty when unpaid.
func (r *Result) NextStep() string {
	if r.Paid {
		return NextStepFeedback
	}
	return ""
}
