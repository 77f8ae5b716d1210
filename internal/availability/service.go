package availability

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/cage-booking-backend/internal/booking"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/clock"
	"github.com/nekogravitycat/cage-booking-backend/internal/slot"
)

// Service is the read-only slot catalog.
type Service interface {
	ListSlots(ctx context.Context, areaName string) ([]*slot.Slot, error)
	ListBookingsForDate(ctx context.Context, date string) ([]*booking.Booking, error)
	// Available runs Filter over the area's slots and the date's bookings.
	Available(ctx context.Context, areaName string, q Query) ([]AvailableSlot, error)
}

type service struct {
	slots    slot.Repository
	bookings booking.Repository
	clock    clock.Clock
	loc      *time.Location
	logger   *logrus.Logger
}

func NewService(slots slot.Repository, bookings booking.Repository, clk clock.Clock, loc *time.Location, logger *logrus.Logger) Service {
	if loc == nil {
		loc = time.UTC
	}
	return &service{slots: slots, bookings: bookings, clock: clk, loc: loc, logger: logger}
}

func (s *service) ListSlots(ctx context.Context, areaName string) ([]*slot.Slot, error) {
	slots, err := s.slots.ListByArea(ctx, areaName)
	if err != nil {
		if errors.Is(err, slot.ErrAreaNotFound) {
			return nil, err
		}
		s.logger.WithError(err).WithField("area", areaName).Error("list slots failed")
		return nil, ErrCatalogUnavailable.WithCause(err)
	}
	return slots, nil
}

func (s *service) ListBookingsForDate(ctx context.Context, date string) ([]*booking.Booking, error) {
	if _, err := booking.ParseDate(date); err != nil {
		return nil, err
	}
	bookings, err := s.bookings.ListByDate(ctx, date)
	if err != nil {
		s.logger.WithError(err).WithField("date", date).Error("list bookings failed")
		return nil, ErrCatalogUnavailable.WithCause(err)
	}
	return bookings, nil
}

func (s *service) Available(ctx context.Context, areaName string, q Query) ([]AvailableSlot, error) {
	slots, err := s.ListSlots(ctx, areaName)
	if err != nil {
		return nil, err
	}
	bookings, err := s.ListBookingsForDate(ctx, q.Date)
	if err != nil {
		return nil, err
	}
	if q.Now.IsZero() {
		q.Now = s.clock.Now().In(s.loc)
	}
	return Filter(slots, bookings, q), nil
}
