package http

import (
	"time"

	"github.com/nekogravitycat/cage-booking-backend/internal/audit"
)

type ListActivityRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

type EntryResponse struct {
	Kind           string    `json:"kind"`
	SlotID         string    `json:"slot_id,omitempty"`
	AreaID         string    `json:"area_id,omitempty"`
	Date           string    `json:"date,omitempty"`
	Price          int64     `json:"price,omitempty"`
	AdvancePayment int64     `json:"advance_payment,omitempty"`
	DuePayment     int64     `json:"due_payment,omitempty"`
	SessionID      string    `json:"session_id,omitempty"`
	Client         string    `json:"client,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewEntryResponse(e *audit.Entry) EntryResponse {
	return EntryResponse{
		Kind:           string(e.Kind),
		SlotID:         e.SlotID,
		AreaID:         e.AreaID,
		Date:           e.Date,
		Price:          e.Price,
		AdvancePayment: e.AdvancePayment,
		DuePayment:     e.DuePayment,
		SessionID:      e.SessionID,
		Client:         e.Client,
		CreatedAt:      e.CreatedAt,
	}
}
