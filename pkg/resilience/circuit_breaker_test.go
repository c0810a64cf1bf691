package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/richxcame/fleet-analytics/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========================================
// CIRCUIT BREAKER
// ========================================

func TestCircuitBreakerTripsAndReturnsOpenError(t *testing.T) {
	breaker := NewCircuitBreaker(Settings{
		Name:             "test-breaker",
		Timeout:          50 * time.Millisecond,
		Interval:         50 * time.Millisecond,
		FailureThreshold: 2,
		SuccessThreshold: 1,
	}, nil)

	ctx := context.Background()
	failingOp := func(context.Context) (interface{}, error) {
		return nil, errors.New("boom")
	}

	for i := 0; i < 2; i++ {
		_, err := breaker.Execute(ctx, failingOp)
		require.Error(t, err, "iteration %d", i)
	}

	assert.False(t, breaker.Allow(), "breaker should be open after consecutive failures")

	_, err := breaker.Execute(ctx, func(context.Context) (interface{}, error) {
		return "ok", nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreakerUsesFallbackWhenOpen(t *testing.T) {
	breaker := NewCircuitBreaker(Settings{
		Name:             "fallback-breaker",
		Timeout:          time.Minute,
		FailureThreshold: 1,
	}, func(ctx context.Context, err error) (interface{}, error) {
		return "cached", nil
	})

	ctx := context.Background()
	_, err := breaker.Execute(ctx, func(context.Context) (interface{}, error) {
		return nil, errors.New("down")
	})
	require.Error(t, err)

	result, err := breaker.Execute(ctx, func(context.Context) (interface{}, error) {
		return "live", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "cached", result)
}

func TestCircuitBreakerPassesThroughOnSuccess(t *testing.T) {
	breaker := NewCircuitBreaker(Settings{
		Name:             "success-breaker",
		Timeout:          time.Second,
		Interval:         time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 1,
	}, nil)

	result, err := breaker.Execute(context.Background(), func(context.Context) (interface{}, error) {
		return "response", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "response", result)
}

func TestNilCircuitBreakerRunsOperation(t *testing.T) {
	var breaker *CircuitBreaker

	result, err := breaker.Execute(context.Background(), func(context.Context) (interface{}, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.True(t, breaker.Allow())
}

func TestSettingsFromConfigAppliesOverrides(t *testing.T) {
	cfg := config.CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 1,
		TimeoutSeconds:   30,
		IntervalSeconds:  60,
		ServiceOverrides: map[string]config.CircuitBreakerSettings{
			"trajets": {FailureThreshold: 2, TimeoutSeconds: 10},
		},
	}

	s := SettingsFromConfig("trajets", cfg)
	assert.Equal(t, "trajets", s.Name)
	assert.Equal(t, uint32(2), s.FailureThreshold)
	assert.Equal(t, 10*time.Second, s.Timeout)
	assert.Equal(t, time.Minute, s.Interval)

	s = SettingsFromConfig("vehicules", cfg)
	assert.Equal(t, uint32(5), s.FailureThreshold)
}
