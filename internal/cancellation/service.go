package cancellation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/cage-booking-backend/internal/audit"
	"github.com/nekogravitycat/cage-booking-backend/internal/booking"
	"github.com/nekogravitycat/cage-booking-backend/internal/events"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/clock"
)

// Bookings is the part of the booking store cancellation needs.
type Bookings interface {
	GetByID(ctx context.Context, id string) (*booking.Booking, error)
	Cancel(ctx context.Context, id, userID string, refundDueBy time.Time) (*booking.Cancellation, error)
}

type Config struct {
	ConfirmTTL   time.Duration
	RefundWindow time.Duration
}

type Service interface {
	// Request issues a short-lived token the user must send back to cancel.
	Request(ctx context.Context, bookingID, userID string) (*Ticket, error)
	// Confirm cancels the booking and opens a refund of the advance payment.
	Confirm(ctx context.Context, bookingID, userID, token string) (*booking.Cancellation, error)
}

type service struct {
	cfg       Config
	bookings  Bookings
	tokens    TokenStore
	clock     clock.Clock
	recorder  *audit.Recorder
	publisher events.Publisher
	logger    *logrus.Logger
}

func NewService(
	cfg Config,
	bookings Bookings,
	tokens TokenStore,
	clk clock.Clock,
	recorder *audit.Recorder,
	publisher events.Publisher,
	logger *logrus.Logger,
) Service {
	return &service{
		cfg:       cfg,
		bookings:  bookings,
		tokens:    tokens,
		clock:     clk,
		recorder:  recorder,
		publisher: publisher,
		logger:    logger,
	}
}

// owned loads the booking and checks it belongs to userID.
func (s *service) owned(ctx context.Context, bookingID, userID string) (*booking.Booking, error) {
	if _, err := uuid.Parse(bookingID); err != nil {
		return nil, booking.ErrNotFound
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, booking.ErrPermissionDenied
	}
	return b, nil
}

func (s *service) Request(ctx context.Context, bookingID, userID string) (*Ticket, error) {
	if _, err := s.owned(ctx, bookingID, userID); err != nil {
		return nil, err
	}

	t := &Ticket{
		BookingID: bookingID,
		Token:     uuid.NewString(),
		ExpiresAt: s.clock.Now().Add(s.cfg.ConfirmTTL),
	}
	if err := s.tokens.Put(ctx, bookingID, t.Token, s.cfg.ConfirmTTL); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) Confirm(ctx context.Context, bookingID, userID, token string) (*booking.Cancellation, error) {
	if token == "" {
		return nil, ErrTokenRequired
	}
	if _, err := s.owned(ctx, bookingID, userID); err != nil {
		return nil, err
	}
	if err := s.tokens.Consume(ctx, bookingID, token); err != nil {
		return nil, err
	}

	c, err := s.bookings.Cancel(ctx, bookingID, userID, s.clock.Now().Add(s.cfg.RefundWindow))
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, audit.Entry{
		Kind:           audit.KindBookingCancelled,
		UserID:         c.UserID,
		SlotID:         c.SlotID,
		AreaID:         c.AreaID,
		Date:           c.Date,
		Price:          c.Price,
		AdvancePayment: c.AdvancePayment,
		SessionID:      c.SessionID,
		Detail:         "refund due by " + c.RefundDueBy.Format(time.RFC3339),
	})

	log := s.logger.WithFields(logrus.Fields{"booking_id": c.BookingID, "user_id": c.UserID})
	if err := s.publisher.Publish(ctx, events.Event{
		Type:      events.TypeBookingCancelled,
		UserID:    c.UserID,
		BookingID: c.BookingID,
		SlotID:    c.SlotID,
		AreaID:    c.AreaID,
		Date:      c.Date,
		Price:     c.Price,
		Advance:   c.AdvancePayment,
		Refund:    c.RefundAmount,
		SessionID: c.SessionID,
	}); err != nil {
		log.WithError(err).Warn("publish booking cancelled failed")
	}
	log.WithField("refund_amount", c.RefundAmount).Info("booking cancelled")

	return c, nil
}
