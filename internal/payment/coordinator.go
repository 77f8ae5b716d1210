package payment

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/cage-booking-backend/internal/audit"
	"github.com/nekogravitycat/cage-booking-backend/internal/auth"
	"github.com/nekogravitycat/cage-booking-backend/internal/hold"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/clock"
)

// HoldSessions records which checkout session a hold is being paid with.
type HoldSessions interface {
	AttachSession(ctx context.Context, userID, holdID, sessionID string) error
}

// Coordinator turns an active hold into a gateway checkout session.
type Coordinator struct {
	gateway  Gateway
	holds    HoldSessions
	recorder *audit.Recorder
	clock    clock.Clock
	logger   *logrus.Logger
}

func NewCoordinator(gateway Gateway, holds HoldSessions, recorder *audit.Recorder, clk clock.Clock, logger *logrus.Logger) *Coordinator {
	return &Coordinator{gateway: gateway, holds: holds, recorder: recorder, clock: clk, logger: logger}
}

// CreateCheckoutSession checks the hold and identity, then requests a session.
// The hold itself is never changed by a failed attempt.
func (c *Coordinator) CreateCheckoutSession(ctx context.Context, h *hold.Hold, id auth.Identity, client string) (*SessionRef, error) {
	if !id.SignedIn() {
		return nil, ErrNotSignedIn
	}
	if h == nil || !h.IsActive(c.clock.Now()) {
		return nil, ErrHoldNotActive
	}
	if h.UserID != id.UserID {
		return nil, ErrIdentityMismatch
	}
	if problems := h.ContextProblems(); len(problems) > 0 {
		return nil, ErrInvalidContext.WithDetails(map[string]any{"context_errors": problems})
	}
	if err := h.ValidateAdvance(); err != nil {
		return nil, err
	}

	email := id.Email
	if email == "" {
		email = h.UserEmail
	}
	intent := Intent{
		UserEmail:      email,
		UserID:         id.UserID,
		SlotID:         h.SlotID,
		AreaID:         h.AreaID,
		Date:           h.Date,
		Price:          h.Price,
		AdvancePayment: h.AdvancePayment,
		DuePayment:     hold.Due(h.Price, h.AdvancePayment),
	}

	entry := audit.Entry{
		Kind:           audit.KindCheckoutRequested,
		UserID:         intent.UserID,
		SlotID:         intent.SlotID,
		AreaID:         intent.AreaID,
		Date:           intent.Date,
		Price:          intent.Price,
		AdvancePayment: intent.AdvancePayment,
		DuePayment:     intent.DuePayment,
		Client:         client,
	}
	c.recorder.Record(ctx, entry)

	ref, err := c.gateway.CreateSession(ctx, intent)
	if err != nil {
		entry.Kind = audit.KindCheckoutFailed
		entry.Detail = err.Error()
		c.recorder.Record(ctx, entry)

		c.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": intent.UserID,
			"slot_id": intent.SlotID,
		}).Warn("create checkout session failed")
		return nil, checkoutError(err)
	}

	if err := c.holds.AttachSession(ctx, id.UserID, h.ID, ref.ID); err != nil {
		// The session exists; verification does not depend on the hold.
		c.logger.WithError(err).WithField("session_id", ref.ID).Warn("attach session to hold failed")
	}

	entry.Kind = audit.KindCheckoutCreated
	entry.SessionID = ref.ID
	c.recorder.Record(ctx, entry)
	return ref, nil
}

func checkoutError(err error) error {
	var ge *GatewayError
	if errors.As(err, &ge) {
		details := map[string]any{"reason": ge.Message}
		if ge.Received != nil {
			details["received"] = ge.Received
		}
		return ErrCheckoutFailed.WithDetails(details).WithCause(err)
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return ErrCheckoutFailed.WithCause(err)
}
