package collector

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// BreakerSettings configures the circuit breaker around driver creation.
type BreakerSettings struct {
	MaxRequests  uint32        // Max requests when half-open
	Interval     time.Duration // Reset counts interval
	Timeout      time.Duration // Open circuit duration
	MinRequests  uint32        // Min requests before tripping
	FailureRatio float64       // Failure ratio threshold
}

// DefaultBreakerSettings trips after repeated browser launch failures.
var DefaultBreakerSettings = BreakerSettings{
	MaxRequests:  1,
	Interval:     5 * time.Minute,
	Timeout:      time.Minute,
	MinRequests:  3,
	FailureRatio: 1.0,
}

// BreakerFactory wraps factory so that a backend which keeps failing to
// start is short-circuited with gobreaker.ErrOpenState.
func BreakerFactory(factory DriverFactory, settings BreakerSettings) DriverFactory {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "PageDriverFactory",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		// A cancelled caller says nothing about the backend.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("circuit breaker state changed")
		},
	})

	return func(ctx context.Context) (PageDriver, error) {
		res, err := cb.Execute(func() (interface{}, error) { return factory(ctx) })
		if err != nil {
			return nil, err
		}
		d, ok := res.(PageDriver)
		if !ok {
			return nil, errors.New("circuit breaker: type assertion failed")
		}
		return d, nil
	}
}
