package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerFactory_OpensAfterRepeatedFailures(t *testing.T) {
	calls := 0
	failing := func(context.Context) (PageDriver, error) {
		calls++
		return nil, errors.New("chrome failed to start")
	}
	f := BreakerFactory(failing, BreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  3,
		FailureRatio: 1.0,
	})

	for i := 0; i < 3; i++ {
		_, err := f(context.Background())
		require.Error(t, err)
	}
	_, err := f(context.Background())

	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, calls)
}

func TestBreakerFactory_PassesDriverThrough(t *testing.T) {
	d := &MockDriver{}
	f := BreakerFactory(d.Factory(), DefaultBreakerSettings)

	got, err := f(context.Background())

	require.NoError(t, err)
	assert.Same(t, d, got)
}

func TestBreakerFactory_CancellationDoesNotTrip(t *testing.T) {
	d := &MockDriver{}
	f := BreakerFactory(d.Factory(), BreakerSettings{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, MinRequests: 1, FailureRatio: 1.0})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f(ctx)
	require.ErrorIs(t, err, context.Canceled)

	_, err = f(context.Background())
	assert.NoError(t, err)
}
