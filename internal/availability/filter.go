package availability

import (
	"slices"
	"strconv"
	"strings"

	"github.com/nekogravitycat/cage-booking-backend/internal/booking"
	"github.com/nekogravitycat/cage-booking-backend/internal/slot"
)

const lastMinuteOfDay = 24*60 - 1

// Filter derives the ordered, annotated slot list for q.
//
// Slots of today whose end is not strictly after q.Now are dropped, as are slots
// outside the inclusive start window and slots whose price does not contain q.Price.
// Remaining slots are marked booked when a pending or paid booking on q.Date
// references them, then ordered by start time.
func Filter(slots []*slot.Slot, bookings []*booking.Booking, q Query) []AvailableSlot {
	today := !q.Now.IsZero() && q.Date == q.Now.Format(booking.DateLayout)
	nowMinutes := q.Now.Hour()*60 + q.Now.Minute()

	windowStart, windowEnd := 0, lastMinuteOfDay
	if q.Start != "" {
		windowStart = Minutes(q.Start)
	}
	if q.End != "" {
		windowEnd = Minutes(q.End)
	}
	price := strings.ToLower(strings.TrimSpace(q.Price))

	booked := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		if b.Date == q.Date && b.PaymentStatus.Occupies() {
			booked[b.SlotID] = true
		}
	}

	out := make([]AvailableSlot, 0, len(slots))
	for _, s := range slots {
		if today && s.EndTime != "" && Minutes(s.EndTime) <= nowMinutes {
			continue
		}
		if q.HasWindow() {
			start := Minutes(s.StartTime)
			if start < windowStart || start > windowEnd {
				continue
			}
		}
		if price != "" && !strings.Contains(strings.ToLower(strconv.FormatInt(s.Price, 10)), price) {
			continue
		}
		out = append(out, AvailableSlot{Slot: *s, IsBooked: booked[s.ID]})
	}

	slices.SortStableFunc(out, func(a, b AvailableSlot) int {
		return Minutes(a.StartTime) - Minutes(b.StartTime)
	})
	return out
}
