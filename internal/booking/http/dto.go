package http

import (
	"time"

	"github.com/nekogravitycat/cage-booking-backend/internal/booking"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/request"
)

// ListByDateRequest defines query parameters for the occupancy list.
type ListByDateRequest struct {
	Date string `form:"date" binding:"required"`
}

// ListMyBookingsRequest defines query parameters for the signed-in user's bookings.
type ListMyBookingsRequest struct {
	request.ListParams
}

// OccupancyResponse is the public view of a booking used to compute availability.
type OccupancyResponse struct {
	ID            string `json:"id"`
	SlotID        string `json:"slot_id"`
	AreaID        string `json:"area_id"`
	Date          string `json:"date"`
	PaymentStatus string `json:"payment_status"`
}

func NewOccupancyResponse(b *booking.Booking) OccupancyResponse {
	return OccupancyResponse{
		ID:            b.ID,
		SlotID:        b.SlotID,
		AreaID:        b.AreaID,
		Date:          b.Date,
		PaymentStatus: string(b.PaymentStatus),
	}
}

type BookingResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	UserEmail      string    `json:"user_email"`
	SlotID         string    `json:"slot_id"`
	AreaID         string    `json:"area_id"`
	Date           string    `json:"date"`
	Price          int64     `json:"price"`
	AdvancePayment int64     `json:"advance_payment"`
	DuePayment     int64     `json:"due_payment"`
	PaymentStatus  string    `json:"payment_status"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:             b.ID,
		UserID:         b.UserID,
		UserEmail:      b.UserEmail,
		SlotID:         b.SlotID,
		AreaID:         b.AreaID,
		Date:           b.Date,
		Price:          b.Price,
		AdvancePayment: b.AdvancePayment,
		DuePayment:     b.DuePayment,
		PaymentStatus:  string(b.PaymentStatus),
		CreatedAt:      b.CreatedAt,
	}
}
