package payment

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// BreakerGateway trips after repeated gateway outages and fails fast with
// ErrGatewayUnavailable until the gateway recovers. Rejected requests
// (GatewayError) do not count as failures.
type BreakerGateway struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker
}

type BreakerConfig struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

func NewBreakerGateway(next Gateway, cfg BreakerConfig, logger *logrus.Logger) *BreakerGateway {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			var ge *GatewayError
			return err == nil || errors.As(err, &ge) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
	return &BreakerGateway{next: next, cb: cb}
}

func (b *BreakerGateway) CreateSession(ctx context.Context, intent Intent) (*SessionRef, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.CreateSession(ctx, intent)
	})
	if err != nil {
		return nil, b.mapErr(err)
	}
	return res.(*SessionRef), nil
}

func (b *BreakerGateway) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.GetSession(ctx, sessionID)
	})
	if err != nil {
		return nil, b.mapErr(err)
	}
	return res.(*Session), nil
}

func (b *BreakerGateway) mapErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrGatewayUnavailable.WithCause(err)
	}
	return err
}
