package hold

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nekogravitycat/cage-booking-backend/internal/booking"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/apperror"
)

var (
	ErrNoActiveHold    = apperror.New(http.StatusNotFound, "no active hold")
	ErrNotActive       = apperror.New(http.StatusConflict, "hold is no longer active")
	ErrSlotUnavailable = apperror.New(http.StatusConflict, "slot already booked for this date")
	ErrInvalidAdvance  = apperror.New(http.StatusUnprocessableEntity, "invalid advance payment")
	ErrAreaMismatch    = apperror.New(http.StatusUnprocessableEntity, "slot does not belong to the selected area")
)

type State string

const (
	StateActive    State = "active"
	StateConfirmed State = "confirmed"
	StateExpired   State = "expired"
	StateAbandoned State = "abandoned"
)

// Field error messages for the advance payment.
const (
	MsgAdvanceRequired = "advance payment is required"
	MsgAdvanceNumeric  = "advance payment must be a number"
	MsgAdvancePositive = "advance payment must be greater than 0"
	MsgAdvanceTooLarge = "advance payment cannot exceed the slot price"
)

// Hold is what a user is trying to book right now. It is advisory: the
// double-booking guard lives in booking finalize, not here.
type Hold struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	UserEmail      string    `json:"user_email"`
	AreaID         string    `json:"area_id"`
	AreaName       string    `json:"area_name"`
	SlotID         string    `json:"slot_id"`
	Date           string    `json:"date"`
	StartTime      string    `json:"start_time"`
	EndTime        string    `json:"end_time"`
	Price          int64     `json:"price"`
	AdvancePayment int64     `json:"advance_payment"`
	DuePayment     int64     `json:"due_payment"`
	State          State     `json:"state"`
	SessionID      string    `json:"session_id"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Due is the amount left to pay at the cage: price minus advance, never negative.
func Due(price, advance int64) int64 {
	if d := price - advance; d > 0 {
		return d
	}
	return 0
}

// SetAdvance stores the advance and recomputes the due amount.
func (h *Hold) SetAdvance(advance int64) {
	h.AdvancePayment = advance
	h.DuePayment = Due(h.Price, advance)
}

// ContextProblems lists the booking details missing from the hold.
// A hold with problems may exist but cannot proceed to payment.
func (h *Hold) ContextProblems() []string {
	var problems []string
	if strings.TrimSpace(h.SlotID) == "" {
		problems = append(problems, "slot_id is required")
	}
	if strings.TrimSpace(h.AreaID) == "" {
		problems = append(problems, "area_id is required")
	}
	if strings.TrimSpace(h.Date) == "" {
		problems = append(problems, "date is required")
	} else if _, err := booking.ParseDate(h.Date); err != nil {
		problems = append(problems, "date must be formatted as YYYY-MM-DD")
	}
	if h.Price <= 0 {
		problems = append(problems, "price must be greater than 0")
	}
	return problems
}

// AdvanceProblem returns the field error for the current advance, or "".
func (h *Hold) AdvanceProblem() string {
	switch {
	case h.AdvancePayment <= 0:
		return MsgAdvancePositive
	case h.AdvancePayment > h.Price:
		return MsgAdvanceTooLarge
	}
	return ""
}

// ValidateAdvance reports an out-of-range advance as a field-scoped error.
func (h *Hold) ValidateAdvance() error {
	if msg := h.AdvanceProblem(); msg != "" {
		return AdvanceError(msg)
	}
	return nil
}

// Remaining is the time left on the countdown at now.
func (h *Hold) Remaining(now time.Time) time.Duration {
	if h.State != StateActive {
		return 0
	}
	if d := h.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// IsActive reports whether the hold can still be paid for at now.
func (h *Hold) IsActive(now time.Time) bool {
	return h.Remaining(now) > 0
}

// AdvanceError builds the field-scoped advance validation error.
func AdvanceError(msg string) error {
	return ErrInvalidAdvance.WithDetails(map[string]any{
		"fields": map[string]string{"advance_payment": msg},
	})
}

// ParseAdvance reads a user-supplied advance amount. It accepts a JSON number or
// a numeric string; whole units only.
func ParseAdvance(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, AdvanceError(MsgAdvanceRequired)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || x != math.Trunc(x) {
			return 0, AdvanceError(MsgAdvanceNumeric)
		}
		return int64(x), nil
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, AdvanceError(MsgAdvanceRequired)
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, AdvanceError(MsgAdvanceNumeric)
		}
		return n, nil
	default:
		return 0, AdvanceError(MsgAdvanceNumeric)
	}
}
