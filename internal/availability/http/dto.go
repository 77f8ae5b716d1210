package http

import (
	"github.com/nekogravitycat/cage-booking-backend/internal/availability"
	"github.com/nekogravitycat/cage-booking-backend/internal/slot"
)

// ListSlotsRequest defines query parameters for listing an area's slots.
// Without a date the raw catalog is returned.
type ListSlotsRequest struct {
	Area  string `form:"area" binding:"required"`
	Date  string `form:"date"`
	Start string `form:"start"`
	End   string `form:"end"`
	Price string `form:"price"`
}

type SlotResponse struct {
	ID        string `json:"id"`
	AreaID    string `json:"area_id"`
	AreaName  string `json:"area_name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Price     int64  `json:"price"`
}

func NewSlotResponse(s *slot.Slot) SlotResponse {
	return SlotResponse{
		ID:        s.ID,
		AreaID:    s.AreaID,
		AreaName:  s.AreaName,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Price:     s.Price,
	}
}

type AvailableSlotResponse struct {
	SlotResponse
	IsBooked bool `json:"isBooked"`
}

func NewAvailableSlotResponse(s availability.AvailableSlot) AvailableSlotResponse {
	return AvailableSlotResponse{
		SlotResponse: NewSlotResponse(&s.Slot),
		IsBooked:     s.IsBooked,
	}
}
