package hold

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/cage-booking-backend/internal/audit"
	"github.com/nekogravitycat/cage-booking-backend/internal/booking"
	"github.com/nekogravitycat/cage-booking-backend/internal/events"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/clock"
	"github.com/nekogravitycat/cage-booking-backend/internal/slot"
)

const expireTimeout = 5 * time.Second

type StartRequest struct {
	UserID    string
	UserEmail string
	SlotID    string
	AreaID    string
	Date      string
	Price     int64
}

type Service interface {
	// Start replaces the user's hold with a new Active one. Missing booking
	// details are recorded as context problems rather than rejected.
	Start(ctx context.Context, req StartRequest) (*Hold, error)
	// Current returns the user's Active hold, resuming its countdown if needed.
	Current(ctx context.Context, userID string) (*Hold, error)
	// SetAdvance stores a numeric advance and recomputes the due amount even when
	// the advance is out of range; non-numeric input is rejected.
	SetAdvance(ctx context.Context, userID string, advance any) (*Hold, error)
	AttachSession(ctx context.Context, userID, holdID, sessionID string) error
	// Confirm clears the hold paid for by sessionID. It reports false when the
	// user's current hold belongs to another checkout.
	Confirm(ctx context.Context, userID, sessionID string) (bool, error)
	Abandon(ctx context.Context, userID string) error
	// Shutdown stops every running countdown and waits for expiries in progress.
	Shutdown()
}

type Config struct {
	Duration time.Duration
	Tick     time.Duration
}

type running struct {
	holdID    string
	countdown *Countdown
}

type service struct {
	cfg       Config
	store     Store
	slots     slot.Repository
	bookings  booking.Service
	clock     clock.Clock
	recorder  *audit.Recorder
	publisher events.Publisher
	logger    *logrus.Logger

	mu         sync.Mutex
	countdowns map[string]running
}

func NewService(
	cfg Config,
	store Store,
	slots slot.Repository,
	bookings booking.Service,
	clk clock.Clock,
	recorder *audit.Recorder,
	publisher events.Publisher,
	logger *logrus.Logger,
) Service {
	return &service{
		cfg:        cfg,
		store:      store,
		slots:      slots,
		bookings:   bookings,
		clock:      clk,
		recorder:   recorder,
		publisher:  publisher,
		logger:     logger,
		countdowns: make(map[string]running),
	}
}

func (s *service) Start(ctx context.Context, req StartRequest) (*Hold, error) {
	now := s.clock.Now()
	h := &Hold{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		UserEmail: req.UserEmail,
		SlotID:    req.SlotID,
		AreaID:    req.AreaID,
		Date:      req.Date,
		Price:     req.Price,
		State:     StateActive,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.Duration),
	}

	if req.SlotID != "" {
		sl, err := s.slots.GetByID(ctx, req.SlotID)
		if err != nil {
			return nil, err
		}
		// Price and times are snapshotted from the catalog, not taken from the client.
		h.Price = sl.Price
		h.StartTime = sl.StartTime
		h.EndTime = sl.EndTime
		h.AreaName = sl.AreaName
		if req.AreaID != "" && req.AreaID != sl.AreaID {
			return nil, ErrAreaMismatch
		}
		h.AreaID = sl.AreaID

		if _, err := booking.ParseDate(req.Date); err == nil {
			paid, err := s.bookings.IsPaid(ctx, req.SlotID, req.Date)
			if err != nil {
				return nil, err
			}
			if paid {
				return nil, ErrSlotUnavailable
			}
		}
	}
	h.DuePayment = Due(h.Price, 0)

	if err := s.store.Save(ctx, h, now); err != nil {
		return nil, err
	}
	s.startCountdown(h, s.cfg.Duration)

	s.logger.WithFields(logrus.Fields{
		"user_id": h.UserID,
		"hold_id": h.ID,
		"slot_id": h.SlotID,
		"date":    h.Date,
	}).Info("hold started")
	return h, nil
}

func (s *service) Current(ctx context.Context, userID string) (*Hold, error) {
	h, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if !h.IsActive(now) {
		s.expire(userID, h.ID)
		return nil, ErrNoActiveHold
	}

	s.mu.Lock()
	r, ok := s.countdowns[userID]
	s.mu.Unlock()
	if !ok || r.holdID != h.ID {
		// The hold outlived the process that counted it down.
		s.startCountdown(h, h.Remaining(now))
	}
	return h, nil
}

func (s *service) SetAdvance(ctx context.Context, userID string, advance any) (*Hold, error) {
	amount, err := ParseAdvance(advance)
	if err != nil {
		return nil, err
	}
	h, err := s.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	h.SetAdvance(amount)
	if err := s.store.Save(ctx, h, s.clock.Now()); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *service) AttachSession(ctx context.Context, userID, holdID, sessionID string) error {
	h, err := s.Current(ctx, userID)
	if err != nil {
		return err
	}
	if h.ID != holdID {
		return ErrNotActive
	}
	h.SessionID = sessionID
	return s.store.Save(ctx, h, s.clock.Now())
}

func (s *service) Confirm(ctx context.Context, userID, sessionID string) (bool, error) {
	h, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoActiveHold) {
			return false, nil
		}
		return false, err
	}
	if h.SessionID == "" || h.SessionID != sessionID {
		return false, nil
	}

	s.stopCountdown(userID, h.ID)
	if _, err := s.store.Delete(ctx, userID, h.ID); err != nil {
		return false, err
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "hold_id": h.ID}).Info("hold confirmed")
	return true, nil
}

func (s *service) Abandon(ctx context.Context, userID string) error {
	h, err := s.store.Get(ctx, userID)
	if err != nil {
		return err
	}

	s.stopCountdown(userID, h.ID)
	if _, err := s.store.Delete(ctx, userID, h.ID); err != nil {
		return err
	}
	h.State = StateAbandoned
	s.recorder.Record(ctx, entryFor(audit.KindHoldAbandoned, h))
	return nil
}

func (s *service) Shutdown() {
	s.mu.Lock()
	all := s.countdowns
	s.countdowns = make(map[string]running)
	s.mu.Unlock()

	for _, r := range all {
		r.countdown.Stop()
	}
}

// startCountdown replaces the user's countdown with one for h.
func (s *service) startCountdown(h *Hold, remaining time.Duration) {
	userID, holdID := h.UserID, h.ID
	cd := StartCountdown(remaining, s.cfg.Tick, nil, func() {
		s.discard(userID, holdID)
		s.forgetCountdown(userID, holdID)
	})

	s.mu.Lock()
	prev, ok := s.countdowns[userID]
	s.countdowns[userID] = running{holdID: holdID, countdown: cd}
	s.mu.Unlock()

	if ok {
		prev.countdown.Stop()
	}
}

// stopCountdown stops the user's countdown if it still belongs to holdID.
func (s *service) stopCountdown(userID, holdID string) {
	s.mu.Lock()
	r, ok := s.countdowns[userID]
	if ok && r.holdID == holdID {
		delete(s.countdowns, userID)
	}
	s.mu.Unlock()

	if ok && r.holdID == holdID {
		r.countdown.Stop()
	}
}

// forgetCountdown drops the map entry of a countdown that has run out.
// The entry stays in place while discard runs so Shutdown waits for it.
func (s *service) forgetCountdown(userID, holdID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.countdowns[userID]; ok && r.holdID == holdID {
		delete(s.countdowns, userID)
	}
}

// expire discards a hold found past its deadline outside its countdown.
func (s *service) expire(userID, holdID string) {
	s.stopCountdown(userID, holdID)
	s.discard(userID, holdID)
}

// discard deletes an ended hold and reports it. It works on its own context
// since it also runs from the countdown goroutine.
func (s *service) discard(userID, holdID string) {
	ctx, cancel := context.WithTimeout(context.Background(), expireTimeout)
	defer cancel()

	h, err := s.store.Get(ctx, userID)
	if err != nil && !errors.Is(err, ErrNoActiveHold) {
		s.logger.WithError(err).WithField("user_id", userID).Warn("load expired hold failed")
	}
	if h == nil || h.ID != holdID {
		return
	}

	deleted, err := s.store.Delete(ctx, userID, holdID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("delete expired hold failed")
		return
	}
	if !deleted {
		return
	}

	h.State = StateExpired
	s.logger.WithFields(logrus.Fields{"user_id": userID, "hold_id": holdID}).Info("hold expired")
	s.recorder.Record(ctx, entryFor(audit.KindHoldExpired, h))
	if err := s.publisher.Publish(ctx, events.Event{
		Type:   events.TypeHoldExpired,
		UserID: h.UserID,
		SlotID: h.SlotID,
		AreaID: h.AreaID,
		Date:   h.Date,
		Price:  h.Price,
	}); err != nil {
		s.logger.WithError(err).Warn("publish hold expired failed")
	}
}

func entryFor(kind audit.Kind, h *Hold) audit.Entry {
	return audit.Entry{
		Kind:           kind,
		UserID:         h.UserID,
		SlotID:         h.SlotID,
		AreaID:         h.AreaID,
		Date:           h.Date,
		Price:          h.Price,
		AdvancePayment: h.AdvancePayment,
		DuePayment:     h.DuePayment,
		SessionID:      h.SessionID,
	}
}
