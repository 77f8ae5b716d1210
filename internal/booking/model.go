package booking

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/apperror"
)

// DateLayout is the calendar-day format used for booking dates.
const DateLayout = "2006-01-02"

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "booking not found")
	ErrSlotTaken        = apperror.New(http.StatusConflict, "slot already booked for this date")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "permission denied")
	ErrInvalidDate      = apperror.New(http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
	ErrInvalidInput     = apperror.New(http.StatusBadRequest, "invalid input parameters")
	ErrUnknownSlot      = apperror.New(http.StatusUnprocessableEntity, "slot or area does not exist")
	ErrSessionCancelled = apperror.New(http.StatusConflict, "booking for this payment session was cancelled")
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Occupies reports whether a booking in this status makes its slot unavailable.
func (s PaymentStatus) Occupies() bool {
	return s == PaymentPaid || s == PaymentPending
}

type Booking struct {
	ID             string
	UserID         string
	UserEmail      string
	SlotID         string
	AreaID         string
	Date           string
	Price          int64
	AdvancePayment int64
	DuePayment     int64
	PaymentStatus  PaymentStatus
	SessionID      string
	CreatedAt      time.Time
}

// FinalizeRequest describes a verified-paid checkout to be turned into a booking.
type FinalizeRequest struct {
	UserID         string
	UserEmail      string
	SlotID         string
	AreaID         string
	Date           string
	Price          int64
	AdvancePayment int64
	DuePayment     int64
	SessionID      string
}

type RefundStatus string

const (
	RefundPending  RefundStatus = "pending"
	RefundOverdue  RefundStatus = "overdue"
	RefundRefunded RefundStatus = "refunded"
)

// Cancellation is the bookkeeping row left behind when a booking is cancelled.
type Cancellation struct {
	ID             string
	BookingID      string
	UserID         string
	SlotID         string
	AreaID         string
	Date           string
	Price          int64
	AdvancePayment int64
	RefundAmount   int64
	RefundDueBy    time.Time
	RefundStatus   RefundStatus
	SessionID      string
	CancelledAt    time.Time
}

type Filter struct {
	UserID   string
	Page     int
	PageSize int
}

// ParseDate validates a YYYY-MM-DD calendar day.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}
