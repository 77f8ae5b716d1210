package payment

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/cage-booking-backend/internal/audit"
	"github.com/nekogravitycat/cage-booking-backend/internal/auth"
	"github.com/nekogravitycat/cage-booking-backend/internal/booking"
	"github.com/nekogravitycat/cage-booking-backend/internal/events"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/apperror"
)

// Finalizer creates the paid booking for a verified session.
type Finalizer interface {
	Finalize(ctx context.Context, req booking.FinalizeRequest) (*booking.Booking, bool, error)
}

// HoldConfirmer clears the hold a session paid for.
type HoldConfirmer interface {
	Confirm(ctx context.Context, userID, sessionID string) (bool, error)
}

// Verifier resolves a returning checkout session into a booking. It checks once
// and never polls; a session that is not yet paid is reported as unpaid.
type Verifier struct {
	gateway   Gateway
	bookings  Finalizer
	holds     HoldConfirmer
	recorder  *audit.Recorder
	publisher events.Publisher
	logger    *logrus.Logger
}

func NewVerifier(gateway Gateway, bookings Finalizer, holds HoldConfirmer, recorder *audit.Recorder, publisher events.Publisher, logger *logrus.Logger) *Verifier {
	return &Verifier{gateway: gateway, bookings: bookings, holds: holds, recorder: recorder, publisher: publisher, logger: logger}
}

func (v *Verifier) Verify(ctx context.Context, id auth.Identity, sessionID string) (*Result, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	log := v.logger.WithFields(logrus.Fields{"session_id": sessionID, "user_id": id.UserID})

	s, err := v.gateway.GetSession(ctx, sessionID)
	if err != nil {
		log.WithError(err).Error("verify checkout session failed")
		if errors.Is(err, ErrGatewayUnavailable) {
			return nil, err
		}
		return nil, ErrVerificationFailed.WithCause(err)
	}
	if id.SignedIn() && s.Intent.UserID != "" && s.Intent.UserID != id.UserID {
		return nil, ErrSessionNotOwned
	}
	if !s.Paid {
		log.WithField("status", s.Status).Info("checkout session not paid")
		return &Result{Paid: false, RawStatus: s.Status}, nil
	}
	if !s.Intent.Complete() {
		log.WithField("received", s.Intent.Received()).Error("paid session carries an incomplete intent")
		return nil, ErrVerificationFailed
	}

	b, created, err := v.bookings.Finalize(ctx, s.Intent.finalizeRequest(s.ID))
	if err != nil {
		if errors.Is(err, booking.ErrSlotTaken) {
			v.recorder.Record(ctx, v.entry(audit.KindFinalizeConflict, s))
			log.WithField("slot_id", s.Intent.SlotID).Error("paid checkout lost the slot to another booking")
			return nil, ErrPaidSlotTaken.WithCause(err)
		}
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			log.WithError(err).Error("finalize booking failed")
		}
		return nil, err
	}

	if created {
		v.recorder.Record(ctx, v.entry(audit.KindBookingConfirmed, s))
		if err := v.publisher.Publish(ctx, events.Event{
			Type:      events.TypeBookingConfirmed,
			UserID:    b.UserID,
			BookingID: b.ID,
			SlotID:    b.SlotID,
			AreaID:    b.AreaID,
			Date:      b.Date,
			Price:     b.Price,
			Advance:   b.AdvancePayment,
			Due:       b.DuePayment,
			SessionID: b.SessionID,
		}); err != nil {
			log.WithError(err).Warn("publish booking confirmed failed")
		}
		log.WithField("booking_id", b.ID).Info("booking confirmed")
	}

	cleared, err := v.holds.Confirm(ctx, b.UserID, s.ID)
	if err != nil {
		log.WithError(err).Warn("clear confirmed hold failed")
	}

	return &Result{Paid: true, RawStatus: s.Status, Booking: b, Created: created, HoldCleared: cleared}, nil
}

func (v *Verifier) entry(kind audit.Kind, s *Session) audit.Entry {
	return audit.Entry{
		Kind:           kind,
		UserID:         s.Intent.UserID,
		SlotID:         s.Intent.SlotID,
		AreaID:         s.Intent.AreaID,
		Date:           s.Intent.Date,
		Price:          s.Intent.Price,
		AdvancePayment: s.Intent.AdvancePayment,
		DuePayment:     s.Intent.DuePayment,
		SessionID:      s.ID,
	}
}
