package booking

import (
	"context"
)

type Service interface {
	// ListForDate returns every booking record on the calendar day, in any payment status.
	ListForDate(ctx context.Context, date string) ([]*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	IsPaid(ctx context.Context, slotID, date string) (bool, error)
	Finalize(ctx context.Context, req FinalizeRequest) (*Booking, bool, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) ListForDate(ctx context.Context, date string) ([]*Booking, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}
	return s.repo.ListByDate(ctx, date)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) IsPaid(ctx context.Context, slotID, date string) (bool, error) {
	if _, err := ParseDate(date); err != nil {
		return false, err
	}
	return s.repo.ExistsPaid(ctx, slotID, date)
}

func (s *service) Finalize(ctx context.Context, req FinalizeRequest) (*Booking, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}
	return s.repo.Finalize(ctx, req)
}

// Validate checks the amounts and references of a finalize request.
// The due amount must equal price minus advance, floored at zero.
func (r FinalizeRequest) Validate() error {
	if r.SessionID == "" || r.UserID == "" || r.SlotID == "" || r.AreaID == "" {
		return ErrInvalidInput
	}
	if _, err := ParseDate(r.Date); err != nil {
		return err
	}
	if r.Price < 0 || r.AdvancePayment <= 0 || r.AdvancePayment > r.Price {
		return ErrInvalidInput
	}
	if r.DuePayment != r.Price-r.AdvancePayment {
		return ErrInvalidInput
	}
	return nil
}
