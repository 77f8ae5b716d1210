// Package events publishes booking domain events to RabbitMQ.
// Publishing is best effort: callers log failures and carry on.
package events

import (
	"context"
	"time"
)

// Event types double as queue names.
const (
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingCancelled = "booking.cancelled"
	TypeHoldExpired      = "hold.expired"
)

// Queues lists every queue the publisher declares.
var Queues = []string{TypeBookingConfirmed, TypeBookingCancelled, TypeHoldExpired}

type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	UserID     string    `json:"user_id"`
	BookingID  string    `json:"booking_id,omitempty"`
	SlotID     string    `json:"slot_id"`
	AreaID     string    `json:"area_id"`
	Date       string    `json:"date"`
	Price      int64     `json:"price,omitempty"`
	Advance    int64     `json:"advance_payment,omitempty"`
	Due        int64     `json:"due_payment,omitempty"`
	Refund     int64     `json:"refund_amount,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher drops every event. It is used when AMQP_URL is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, e Event) error { return nil }
func (NopPublisher) Close() error                             { return nil }
