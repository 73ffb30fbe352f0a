package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failingCall(ctx context.Context) (int, error) {
	return 0, errors.New("provider down")
}

func successCall(ctx context.Context) (int, error) {
	return 7, nil
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := ExecuteVal(context.Background(), cb, failingCall)
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrCircuitOpen)
	}

	_, err := ExecuteVal(context.Background(), cb, successCall)
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})

	_, _ = ExecuteVal(context.Background(), cb, failingCall)
	_, _ = ExecuteVal(context.Background(), cb, failingCall)
	val, err := ExecuteVal(context.Background(), cb, successCall)
	require.NoError(t, err)
	assert.Equal(t, 7, val)

	_, _ = ExecuteVal(context.Background(), cb, failingCall)
	_, _ = ExecuteVal(context.Background(), cb, failingCall)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	t.Parallel()

	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Second})
	cb.nowFunc = func() time.Time { return now }

	_, _ = ExecuteVal(context.Background(), cb, failingCall)
	assert.Equal(t, CircuitOpen, cb.State())

	// Before the reset timeout, calls are rejected.
	_, err := ExecuteVal(context.Background(), cb, successCall)
	require.ErrorIs(t, err, ErrCircuitOpen)

	// After the reset timeout, a probe is allowed and a success closes the circuit.
	now = now.Add(11 * time.Second)
	val, err := ExecuteVal(context.Background(), cb, successCall)
	require.NoError(t, err)
	assert.Equal(t, 7, val)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Second})
	cb.nowFunc = func() time.Time { return now }

	_, _ = ExecuteVal(context.Background(), cb, failingCall)
	now = now.Add(11 * time.Second)
	_, err := ExecuteVal(context.Background(), cb, failingCall)
	require.Error(t, err)
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreaker_ShouldTripFilter(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		ShouldTrip:       IsTransient,
	})

	// Non-transient failures pass through without opening the circuit.
	for i := 0; i < 5; i++ {
		_, err := ExecuteVal(context.Background(), cb, failingCall)
		require.Error(t, err)
	}
	assert.Equal(t, CircuitClosed, cb.State())

	_, _ = ExecuteVal(context.Background(), cb, func(ctx context.Context) (int, error) {
		return 0, NewTransientError(errors.New("bad gateway"), 502)
	})
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	t.Parallel()

	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_, _ = ExecuteVal(context.Background(), cb, failingCall)
	cb.Reset()
	assert.Equal(t, []string{"closed->open", "open->closed"}, transitions)
}

func TestCircuitState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(99).String())
}
