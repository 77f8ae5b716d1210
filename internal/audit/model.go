package audit

import "time"

type Kind string

const (
	KindCheckoutRequested Kind = "checkout_requested"
	KindCheckoutCreated   Kind = "checkout_created"
	KindCheckoutFailed    Kind = "checkout_failed"
	KindBookingConfirmed  Kind = "booking_confirmed"
	KindFinalizeConflict  Kind = "finalize_conflict"
	KindHoldExpired       Kind = "hold_expired"
	KindHoldAbandoned     Kind = "hold_abandoned"
	KindBookingCancelled  Kind = "booking_cancelled"
)

// Entry is one line of the append-only booking attempt log.
// It is bookkeeping only and never consulted for booking state.
type Entry struct {
	ID             int64
	Kind           Kind
	UserID         string
	SlotID         string
	AreaID         string
	Date           string
	Price          int64
	AdvancePayment int64
	DuePayment     int64
	SessionID      string
	Client         string
	Detail         string
	CreatedAt      time.Time
}
