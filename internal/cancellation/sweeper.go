package cancellation

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/clock"
)

// OverdueMarker flags refunds that were not paid back in time.
type OverdueMarker interface {
	MarkOverdueRefunds(ctx context.Context, now time.Time) (int64, error)
}

// RefundSweeper periodically marks overdue refunds.
type RefundSweeper struct {
	cron    *cron.Cron
	refunds OverdueMarker
	clock   clock.Clock
	logger  *logrus.Logger
}

// NewRefundSweeper schedules the sweep with a standard cron spec or a
// descriptor such as "@hourly".
func NewRefundSweeper(schedule string, refunds OverdueMarker, clk clock.Clock, logger *logrus.Logger) (*RefundSweeper, error) {
	s := &RefundSweeper{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		refunds: refunds,
		clock:   clk,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.Sweep(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid refund sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Sweep runs one pass and returns how many refunds became overdue.
func (s *RefundSweeper) Sweep(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	n, err := s.refunds.MarkOverdueRefunds(ctx, s.clock.Now())
	if err != nil {
		s.logger.WithError(err).Error("refund sweep failed")
		return 0
	}
	if n > 0 {
		s.logger.WithField("count", n).Warn("refunds are overdue")
	}
	return n
}

func (s *RefundSweeper) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *RefundSweeper) Stop() {
	<-s.cron.Stop().Done()
}
