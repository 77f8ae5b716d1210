package slot

import (
	"net/http"

	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound     = apperror.New(http.StatusNotFound, "slot not found")
	ErrAreaNotFound = apperror.New(http.StatusNotFound, "area not found")
)

// Slot is a fixed time-and-price unit offered by an area.
// StartTime and EndTime are wall-clock "HH:MM" strings on the booked day;
// EndTime may be empty.
type Slot struct {
	ID        string `json:"id"`
	AreaID    string `json:"area_id"`
	AreaName  string `json:"area_name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Price     int64  `json:"price"`
}
