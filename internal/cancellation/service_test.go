package cancellation

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/cage-booking-backend/internal/audit"
	"github.com/nekogravitycat/cage-booking-backend/internal/booking"
	"github.com/nekogravitycat/cage-booking-backend/internal/events"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/clock"
)

const (
	bookingID = "7b0c5f8e-3a52-4c1e-9a51-0f8d1f6b2c11"
	otherID   = "c4f2d1a0-8e77-4d55-b1a2-6e9f0d3c4b22"
)

var now = time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC)

// memBookings cancels by removing the booking, the way the table row is deleted.
type memBookings struct {
	mu        sync.Mutex
	bookings  map[string]*booking.Booking
	cancelled []*booking.Cancellation
}

func (m *memBookings) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return b, nil
}

func (m *memBookings) Cancel(ctx context.Context, id, userID string, refundDueBy time.Time) (*booking.Cancellation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.UserID != userID {
		return nil, booking.ErrNotFound
	}
	delete(m.bookings, id)
	c := &booking.Cancellation{
		ID:             "cancel-1",
		BookingID:      b.ID,
		UserID:         b.UserID,
		SlotID:         b.SlotID,
		AreaID:         b.AreaID,
		Date:           b.Date,
		Price:          b.Price,
		AdvancePayment: b.AdvancePayment,
		RefundAmount:   b.AdvancePayment,
		RefundDueBy:    refundDueBy,
		RefundStatus:   booking.RefundPending,
		SessionID:      b.SessionID,
		CancelledAt:    now,
	}
	m.cancelled = append(m.cancelled, c)
	return c, nil
}

type memAudit struct {
	mu    sync.Mutex
	kinds []audit.Kind
}

func (m *memAudit) Append(ctx context.Context, e *audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kinds = append(m.kinds, e.Kind)
	return nil
}

func (m *memAudit) ListByUser(ctx context.Context, userID string, limit int) ([]*audit.Entry, error) {
	return nil, nil
}

type fixture struct {
	svc       Service
	mr        *miniredis.Miniredis
	clock     *clock.MockClock
	bookings  *memBookings
	audit     *memAudit
	published *events.Recorder
}

func setup(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		mr:    mr,
		clock: clock.NewMockClock(now),
		bookings: &memBookings{bookings: map[string]*booking.Booking{
			bookingID: {
				ID: bookingID, UserID: "user-1", SlotID: "slot-7", AreaID: "area-vasna", Date: "2026-10-20",
				Price: 1200, AdvancePayment: 300, DuePayment: 900, PaymentStatus: booking.PaymentPaid, SessionID: "cs_test_1",
			},
		}},
		audit:     &memAudit{},
		published: &events.Recorder{},
	}
	f.svc = NewService(
		Config{ConfirmTTL: 5 * time.Minute, RefundWindow: 7 * 24 * time.Hour},
		f.bookings,
		NewRedisTokenStore(rdb),
		f.clock,
		audit.NewRecorder(f.audit, logger),
		f.published,
		logger,
	)
	return f
}

func TestService_RequestThenConfirm(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ticket, err := f.svc.Request(ctx, bookingID, "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.Token)
	assert.Equal(t, now.Add(5*time.Minute), ticket.ExpiresAt)
	assert.Equal(t, 5*time.Minute, f.mr.TTL("cancel:"+bookingID))

	c, err := f.svc.Confirm(ctx, bookingID, "user-1", ticket.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(300), c.RefundAmount)
	assert.Equal(t, now.Add(7*24*time.Hour), c.RefundDueBy)
	assert.Equal(t, booking.RefundPending, c.RefundStatus)

	assert.Equal(t, []audit.Kind{audit.KindBookingCancelled}, f.audit.kinds)
	published := f.published.OfType(events.TypeBookingCancelled)
	require.Len(t, published, 1)
	assert.Equal(t, bookingID, published[0].BookingID)
	assert.Equal(t, int64(300), published[0].Refund)
	assert.False(t, f.mr.Exists("cancel:"+bookingID))
}

func TestService_AlreadyCancelledIsNotFound(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ticket, err := f.svc.Request(ctx, bookingID, "user-1")
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, bookingID, "user-1", ticket.Token)
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, bookingID, "user-1", ticket.Token)
	assert.ErrorIs(t, err, booking.ErrNotFound)

	_, err = f.svc.Request(ctx, bookingID, "user-1")
	assert.ErrorIs(t, err, booking.ErrNotFound)
	assert.Len(t, f.bookings.cancelled, 1)
}

func TestService_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		run     func(f *fixture) error
		wantErr error
	}{
		{
			name: "Unknown booking",
			run: func(f *fixture) error {
				_, err := f.svc.Request(context.Background(), otherID, "user-1")
				return err
			},
			wantErr: booking.ErrNotFound,
		},
		{
			name: "Malformed id",
			run: func(f *fixture) error {
				_, err := f.svc.Request(context.Background(), "not-a-uuid", "user-1")
				return err
			},
			wantErr: booking.ErrNotFound,
		},
		{
			name: "Someone else's booking",
			run: func(f *fixture) error {
				_, err := f.svc.Request(context.Background(), bookingID, "user-2")
				return err
			},
			wantErr: booking.ErrPermissionDenied,
		},
		{
			name: "Confirm without token",
			run: func(f *fixture) error {
				_, err := f.svc.Confirm(context.Background(), bookingID, "user-1", "")
				return err
			},
			wantErr: ErrTokenRequired,
		},
		{
			name: "Confirm without request",
			run: func(f *fixture) error {
				_, err := f.svc.Confirm(context.Background(), bookingID, "user-1", "made-up")
				return err
			},
			wantErr: ErrTokenExpired,
		},
		{
			name: "Confirm with wrong token",
			run: func(f *fixture) error {
				if _, err := f.svc.Request(context.Background(), bookingID, "user-1"); err != nil {
					return err
				}
				_, err := f.svc.Confirm(context.Background(), bookingID, "user-1", "made-up")
				return err
			},
			wantErr: ErrTokenInvalid,
		},
		{
			name: "Confirm after token expired",
			run: func(f *fixture) error {
				ticket, err := f.svc.Request(context.Background(), bookingID, "user-1")
				if err != nil {
					return err
				}
				f.mr.FastForward(6 * time.Minute)
				_, err = f.svc.Confirm(context.Background(), bookingID, "user-1", ticket.Token)
				return err
			},
			wantErr: ErrTokenExpired,
		},
		{
			name: "Other user confirms with valid token",
			run: func(f *fixture) error {
				ticket, err := f.svc.Request(context.Background(), bookingID, "user-1")
				if err != nil {
					return err
				}
				_, err = f.svc.Confirm(context.Background(), bookingID, "user-2", ticket.Token)
				return err
			},
			wantErr: booking.ErrPermissionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			err := tt.run(f)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.bookings.cancelled)
			assert.Empty(t, f.published.Events())
		})
	}
}

func TestService_WrongTokenDoesNotBurnTicket(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ticket, err := f.svc.Request(ctx, bookingID, "user-1")
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, bookingID, "user-1", "made-up")
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = f.svc.Confirm(ctx, bookingID, "user-1", ticket.Token)
	assert.NoError(t, err)
}

func TestService_PublishFailureStillCancels(t *testing.T) {
	f := setup(t)
	f.published.Err = errors.New("broker down")
	ctx := context.Background()

	ticket, err := f.svc.Request(ctx, bookingID, "user-1")
	require.NoError(t, err)
	c, err := f.svc.Confirm(ctx, bookingID, "user-1", ticket.Token)
	require.NoError(t, err)
	assert.Equal(t, bookingID, c.BookingID)
}
