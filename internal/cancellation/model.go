package cancellation

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/apperror"
)

var (
	ErrTokenRequired = apperror.New(http.StatusBadRequest, "confirmation token is required")
	ErrTokenExpired  = apperror.New(http.StatusConflict, "cancellation was not requested or has expired, please request it again")
	ErrTokenInvalid  = apperror.New(http.StatusUnprocessableEntity, "confirmation token does not match")
)

// Ticket is the proof a user asked to cancel; it must be presented to confirm.
type Ticket struct {
	BookingID string
	Token     string
	ExpiresAt time.Time
}
