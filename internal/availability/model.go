package availability

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/cage-booking-backend/internal/slot"
)

// ErrCatalogUnavailable means slots or bookings could not be read. Callers must
// not treat it as "nothing booked".
var ErrCatalogUnavailable = apperror.New(http.StatusServiceUnavailable, "slot catalog unavailable, please retry")

// Query selects the bookable subset of an area's slots on a date.
type Query struct {
	Date  string
	Start string
	End   string
	Price string
	Now   time.Time
}

// HasWindow reports whether a start-time window was requested.
func (q Query) HasWindow() bool {
	return q.Start != "" || q.End != ""
}

// AvailableSlot is a slot annotated with whether it is already taken on the queried date.
type AvailableSlot struct {
	slot.Slot
	IsBooked bool
}
