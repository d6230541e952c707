package payment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

type BreakerSettings struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
}

// BreakerGateway stops calling the processor after repeated failures and
// fails fast with ErrUnavailable until the open timeout passes.
type BreakerGateway struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[*Intent]
}

func NewBreakerGateway(next Gateway, s BreakerSettings, logger *slog.Logger) *BreakerGateway {
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: s.HalfOpenRequests,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up says nothing about the processor
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}
	return &BreakerGateway{next: next, cb: gobreaker.NewCircuitBreaker[*Intent](settings)}
}

func (g *BreakerGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	return g.execute(func() (*Intent, error) { return g.next.CreateIntent(ctx, req) })
}

func (g *BreakerGateway) GetIntent(ctx context.Context, id string) (*Intent, error) {
	return g.execute(func() (*Intent, error) { return g.next.GetIntent(ctx, id) })
}

func (g *BreakerGateway) State() string {
	return g.cb.State().String()
}

func (g *BreakerGateway) execute(fn func() (*Intent, error)) (*Intent, error) {
	intent, err := g.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrUnavailable
	}
	return intent, err
}

var _ Gateway = (*BreakerGateway)(nil)
