package payment

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/cage-booking-backend/internal/audit"
	"github.com/nekogravitycat/cage-booking-backend/internal/auth"
	"github.com/nekogravitycat/cage-booking-backend/internal/booking"
	"github.com/nekogravitycat/cage-booking-backend/internal/events"
	"github.com/nekogravitycat/cage-booking-backend/internal/hold"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/clock"
	"github.com/nekogravitycat/cage-booking-backend/internal/slot"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateSession(ctx context.Context, intent Intent) (*SessionRef, error) {
	args := m.Called(ctx, intent)
	if v := args.Get(0); v != nil {
		return v.(*SessionRef), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	args := m.Called(ctx, sessionID)
	if v := args.Get(0); v != nil {
		return v.(*Session), args.Error(1)
	}
	return nil, args.Error(1)
}

type vasnaSlots struct{}

func (vasnaSlots) ListByArea(ctx context.Context, areaName string) ([]*slot.Slot, error) {
	return nil, nil
}

func (vasnaSlots) GetByID(ctx context.Context, id string) (*slot.Slot, error) {
	return &slot.Slot{ID: id, AreaID: "area-vasna", AreaName: "Vasna", StartTime: "22:00", EndTime: "23:30", Price: 200}, nil
}

// memBookings keeps paid bookings keyed the way the unique indexes do.
type memBookings struct {
	booking.Service
	mu        sync.Mutex
	bySession map[string]*booking.Booking
	bySlot    map[string]*booking.Booking
	cancelled map[string]bool
}

func newMemBookings() *memBookings {
	return &memBookings{
		bySession: map[string]*booking.Booking{},
		bySlot:    map[string]*booking.Booking{},
		cancelled: map[string]bool{},
	}
}

func (m *memBookings) IsPaid(ctx context.Context, slotID, date string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bySlot[slotID+"|"+date]
	return ok, nil
}

func (m *memBookings) Finalize(ctx context.Context, req booking.FinalizeRequest) (*booking.Booking, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bySession[req.SessionID]; ok {
		return b, false, nil
	}
	if m.cancelled[req.SessionID] {
		return nil, false, booking.ErrSessionCancelled
	}
	key := req.SlotID + "|" + req.Date
	if _, ok := m.bySlot[key]; ok {
		return nil, false, booking.ErrSlotTaken
	}
	b := &booking.Booking{
		ID:             "booking-" + req.SessionID,
		UserID:         req.UserID,
		UserEmail:      req.UserEmail,
		SlotID:         req.SlotID,
		AreaID:         req.AreaID,
		Date:           req.Date,
		Price:          req.Price,
		AdvancePayment: req.AdvancePayment,
		DuePayment:     req.DuePayment,
		PaymentStatus:  booking.PaymentPaid,
		SessionID:      req.SessionID,
	}
	m.bySession[req.SessionID] = b
	m.bySlot[key] = b
	return b, true, nil
}

func (m *memBookings) cancel(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bySession[sessionID]; ok {
		delete(m.bySlot, b.SlotID+"|"+b.Date)
		delete(m.bySession, sessionID)
	}
	m.cancelled[sessionID] = true
}

func (m *memBookings) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bySlot)
}

type memAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (m *memAudit) Append(ctx context.Context, e *audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memAudit) ListByUser(ctx context.Context, userID string, limit int) ([]*audit.Entry, error) {
	return nil, nil
}

func (m *memAudit) kinds() []audit.Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []audit.Kind
	for _, e := range m.entries {
		out = append(out, e.Kind)
	}
	return out
}

type fixture struct {
	gateway     *mockGateway
	bookings    *memBookings
	holds       hold.Service
	audit       *memAudit
	published   *events.Recorder
	coordinator *Coordinator
	verifier    *Verifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		gateway:   new(mockGateway),
		bookings:  newMemBookings(),
		audit:     &memAudit{},
		published: &events.Recorder{},
	}
	recorder := audit.NewRecorder(f.audit, logger)
	clk := clock.NewRealClock()
	f.holds = hold.NewService(hold.Config{Duration: time.Minute, Tick: time.Second},
		hold.NewRedisStore(rdb), vasnaSlots{}, f.bookings, clk, recorder, f.published, logger)
	t.Cleanup(f.holds.Shutdown)

	f.coordinator = NewCoordinator(f.gateway, f.holds, recorder, clk, logger)
	f.verifier = NewVerifier(f.gateway, f.bookings, f.holds, recorder, f.published, logger)
	return f
}

var player = auth.Identity{UserID: "user-1", Email: "player@example.com"}

func (f *fixture) startHold(t *testing.T, advance any) *hold.Hold {
	t.Helper()
	ctx := context.Background()
	_, err := f.holds.Start(ctx, hold.StartRequest{
		UserID: player.UserID, UserEmail: player.Email,
		SlotID: "slot-2200", AreaID: "area-vasna", Date: "2026-10-16",
	})
	require.NoError(t, err)
	h, err := f.holds.SetAdvance(ctx, player.UserID, advance)
	require.NoError(t, err)
	return h
}

func vasnaIntent() Intent {
	return Intent{
		UserEmail: "player@example.com", UserID: "user-1",
		SlotID: "slot-2200", AreaID: "area-vasna", Date: "2026-10-16",
		Price: 200, AdvancePayment: 50, DuePayment: 150,
	}
}

func TestVasnaScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	h := f.startHold(t, float64(50))
	assert.Equal(t, int64(150), h.DuePayment)

	f.gateway.On("CreateSession", mock.Anything, vasnaIntent()).
		Return(&SessionRef{ID: "cs_test_valid"}, nil).Once()
	f.gateway.On("GetSession", mock.Anything, "cs_test_valid").
		Return(&Session{ID: "cs_test_valid", Paid: true, Status: "succeeded", Intent: vasnaIntent()}, nil).Twice()

	ref, err := f.coordinator.CreateCheckoutSession(ctx, h, player, "Chrome 120 on Windows 10")
	require.NoError(t, err)
	assert.Equal(t, "cs_test_valid", ref.ID)

	res, err := f.verifier.Verify(ctx, player, "cs_test_valid")
	require.NoError(t, err)
	assert.True(t, res.Paid)
	assert.True(t, res.Created)
	assert.True(t, res.HoldCleared)
	assert.Equal(t, NextStepFeedback, res.NextStep())
	assert.Equal(t, int64(200), res.Booking.Price)
	assert.Equal(t, int64(50), res.Booking.AdvancePayment)
	assert.Equal(t, int64(150), res.Booking.DuePayment)
	assert.Equal(t, booking.PaymentPaid, res.Booking.PaymentStatus)

	_, err = f.holds.Current(ctx, player.UserID)
	assert.ErrorIs(t, err, hold.ErrNoActiveHold)

	again, err := f.verifier.Verify(ctx, player, "cs_test_valid")
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, res.Booking.ID, again.Booking.ID)
	assert.Equal(t, 1, f.bookings.count())
	assert.Len(t, f.published.OfType(events.TypeBookingConfirmed), 1)

	assert.Equal(t, []audit.Kind{
		audit.KindCheckoutRequested,
		audit.KindCheckoutCreated,
		audit.KindBookingConfirmed,
	}, f.audit.kinds())
	f.gateway.AssertExpectations(t)
}

func TestCoordinator_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("Not signed in", func(t *testing.T) {
		f := newFixture(t)
		h := f.startHold(t, float64(50))
		_, err := f.coordinator.CreateCheckoutSession(ctx, h, auth.Identity{}, "")
		assert.ErrorIs(t, err, ErrNotSignedIn)
	})

	t.Run("Advance above price keeps the hold and creates no session", func(t *testing.T) {
		f := newFixture(t)
		h := f.startHold(t, float64(250))
		_, err := f.coordinator.CreateCheckoutSession(ctx, h, player, "")
		assert.ErrorIs(t, err, hold.ErrInvalidAdvance)

		current, err := f.holds.Current(ctx, player.UserID)
		require.NoError(t, err)
		assert.Equal(t, hold.StateActive, current.State)
		f.gateway.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
	})

	t.Run("Expired hold", func(t *testing.T) {
		f := newFixture(t)
		h := f.startHold(t, float64(50))
		h.ExpiresAt = time.Now().Add(-time.Second)
		_, err := f.coordinator.CreateCheckoutSession(ctx, h, player, "")
		assert.ErrorIs(t, err, ErrHoldNotActive)
	})

	t.Run("Incomplete context", func(t *testing.T) {
		f := newFixture(t)
		h := &hold.Hold{UserID: "user-1", State: hold.StateActive, ExpiresAt: time.Now().Add(time.Minute)}
		_, err := f.coordinator.CreateCheckoutSession(ctx, h, player, "")
		require.ErrorIs(t, err, ErrInvalidContext)

		var appErr *apperror.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Len(t, appErr.Details["context_errors"], 4)
	})

	t.Run("Gateway rejection surfaces received fields", func(t *testing.T) {
		f := newFixture(t)
		h := f.startHold(t, float64(50))
		received := vasnaIntent().Received()
		received["userEmail"] = false
		f.gateway.On("CreateSession", mock.Anything, mock.Anything).
			Return(nil, &GatewayError{Message: "Invalid email address", Received: received})

		_, err := f.coordinator.CreateCheckoutSession(ctx, h, player, "")
		require.ErrorIs(t, err, ErrCheckoutFailed)

		var appErr *apperror.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, http.StatusBadGateway, appErr.Code)
		assert.Equal(t, received, appErr.Details["received"])
		assert.Equal(t, "Invalid email address", appErr.Details["reason"])

		current, err := f.holds.Current(ctx, player.UserID)
		require.NoError(t, err)
		assert.Empty(t, current.SessionID)
		assert.Equal(t, []audit.Kind{audit.KindCheckoutRequested, audit.KindCheckoutFailed}, f.audit.kinds())
	})

	t.Run("Breaker open is retryable", func(t *testing.T) {
		f := newFixture(t)
		h := f.startHold(t, float64(50))
		f.gateway.On("CreateSession", mock.Anything, mock.Anything).Return(nil, ErrGatewayUnavailable)

		_, err := f.coordinator.CreateCheckoutSession(ctx, h, player, "")
		assert.ErrorIs(t, err, ErrGatewayUnavailable)
	})
}

func TestVerifier_Outcomes(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing session id", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.verifier.Verify(ctx, player, "")
		assert.ErrorIs(t, err, ErrMissingSession)
		assert.Equal(t, 0, f.bookings.count())
	})

	t.Run("Gateway failure advises support", func(t *testing.T) {
		f := newFixture(t)
		f.gateway.On("GetSession", mock.Anything, "cs_x").Return(nil, errors.New("connection reset"))
		_, err := f.verifier.Verify(ctx, player, "cs_x")
		assert.ErrorIs(t, err, ErrVerificationFailed)
		assert.Equal(t, 0, f.bookings.count())
	})

	t.Run("Unpaid leaves the hold alone", func(t *testing.T) {
		f := newFixture(t)
		f.startHold(t, float64(50))
		f.gateway.On("GetSession", mock.Anything, "cs_pending").
			Return(&Session{ID: "cs_pending", Paid: false, Status: "processing", Intent: vasnaIntent()}, nil)

		res, err := f.verifier.Verify(ctx, player, "cs_pending")
		require.NoError(t, err)
		assert.False(t, res.Paid)
		assert.Equal(t, "processing", res.RawStatus)
		assert.Empty(t, res.NextStep())

		_, err = f.holds.Current(ctx, player.UserID)
		assert.NoError(t, err)
		assert.Equal(t, 0, f.bookings.count())
	})

	t.Run("Session of another user", func(t *testing.T) {
		f := newFixture(t)
		f.gateway.On("GetSession", mock.Anything, "cs_other").
			Return(&Session{ID: "cs_other", Paid: true, Status: "succeeded", Intent: vasnaIntent()}, nil)
		_, err := f.verifier.Verify(ctx, auth.Identity{UserID: "user-2"}, "cs_other")
		assert.ErrorIs(t, err, ErrSessionNotOwned)
	})

	t.Run("Second payer for the same slot gets a conflict", func(t *testing.T) {
		f := newFixture(t)
		other := vasnaIntent()
		other.UserID = "user-2"
		f.gateway.On("GetSession", mock.Anything, "cs_first").
			Return(&Session{ID: "cs_first", Paid: true, Status: "succeeded", Intent: vasnaIntent()}, nil)
		f.gateway.On("GetSession", mock.Anything, "cs_second").
			Return(&Session{ID: "cs_second", Paid: true, Status: "succeeded", Intent: other}, nil)

		_, err := f.verifier.Verify(ctx, player, "cs_first")
		require.NoError(t, err)
		_, err = f.verifier.Verify(ctx, auth.Identity{UserID: "user-2"}, "cs_second")
		assert.ErrorIs(t, err, ErrPaidSlotTaken)
		assert.Equal(t, 1, f.bookings.count())
		assert.Contains(t, f.audit.kinds(), audit.KindFinalizeConflict)
	})

	t.Run("Cancelled booking stays cancelled on repeat verify", func(t *testing.T) {
		f := newFixture(t)
		f.gateway.On("GetSession", mock.Anything, "cs_test_valid").
			Return(&Session{ID: "cs_test_valid", Paid: true, Status: "succeeded", Intent: vasnaIntent()}, nil)

		res, err := f.verifier.Verify(ctx, player, "cs_test_valid")
		require.NoError(t, err)
		require.True(t, res.Created)
		f.bookings.cancel("cs_test_valid")

		_, err = f.verifier.Verify(ctx, player, "cs_test_valid")
		assert.ErrorIs(t, err, booking.ErrSessionCancelled)
		assert.Equal(t, 0, f.bookings.count())
		assert.Len(t, f.published.OfType(events.TypeBookingConfirmed), 1)
	})
}

func TestIntent(t *testing.T) {
	i := vasnaIntent()
	assert.True(t, i.Complete())
	assert.Equal(t, i, IntentFromMetadata(i.Metadata()))

	i.DuePayment = 100
	assert.False(t, i.Complete())
	assert.False(t, i.Received()["due_payment"])

	empty := IntentFromMetadata(nil)
	for field, ok := range empty.Received() {
		if field == "due_payment" {
			// zero price, zero advance and zero due add up
			continue
		}
		assert.False(t, ok, field)
	}
}
