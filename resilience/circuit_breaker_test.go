package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinela-labs/sentinela/sentinelerrors"
)

func TestInProcessBreaker_OpensAfterFailureThreshold(t *testing.T) {
	cb := NewInProcessBreaker(Params{Name: "test", FailureThreshold: 2, RecoveryTimeout: time.Hour})

	assert.Error(t, cb.Execute(context.Background(), func() error { return errors.New("fail") }))
	assert.Equal(t, "closed", cb.GetState())

	assert.Error(t, cb.Execute(context.Background(), func() error { return errors.New("fail") }))
	assert.Equal(t, "open", cb.GetState())

	callCount := 0
	err := cb.Execute(context.Background(), func() error { callCount++; return nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinelerrors.ErrCircuitBreakerOpen)
	assert.Equal(t, 0, callCount, "open breaker must short-circuit without invoking fn")
}

func TestInProcessBreaker_HalfOpenAfterRecoveryTimeoutThenCloses(t *testing.T) {
	cb := NewInProcessBreaker(Params{Name: "test", FailureThreshold: 1, RecoveryTimeout: 10 * time.Millisecond})

	require.Error(t, cb.Execute(context.Background(), func() error { return errors.New("fail") }))
	assert.Equal(t, "open", cb.GetState())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, cb.CanExecute())

	require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
	assert.Equal(t, "closed", cb.GetState())
}

func TestInProcessBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewInProcessBreaker(Params{Name: "test", FailureThreshold: 1, RecoveryTimeout: 10 * time.Millisecond})

	require.Error(t, cb.Execute(context.Background(), func() error { return errors.New("fail") }))
	time.Sleep(20 * time.Millisecond)

	require.Error(t, cb.Execute(context.Background(), func() error { return errors.New("still failing") }))
	assert.Equal(t, "open", cb.GetState())
}

func TestInProcessBreaker_ExecuteWithTimeoutRecordsFailureOnDeadline(t *testing.T) {
	cb := NewInProcessBreaker(Params{Name: "test", FailureThreshold: 1})

	err := cb.ExecuteWithTimeout(context.Background(), 10*time.Millisecond, func() error {
		time.Sleep(50 * time.Millisecond)
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, "open", cb.GetState())
}

func TestInProcessBreaker_ResetReturnsToClosed(t *testing.T) {
	cb := NewInProcessBreaker(Params{Name: "test", FailureThreshold: 1})
	require.Error(t, cb.Execute(context.Background(), func() error { return errors.New("fail") }))
	require.Equal(t, "open", cb.GetState())

	cb.Reset()
	assert.Equal(t, "closed", cb.GetState())
	assert.True(t, cb.CanExecute())
}

func TestInProcessBreaker_GetMetricsReflectsCallCounts(t *testing.T) {
	cb := NewInProcessBreaker(Params{Name: "metrics-test", FailureThreshold: 5})
	require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
	require.Error(t, cb.Execute(context.Background(), func() error { return errors.New("x") }))

	metrics := cb.GetMetrics()
	assert.Equal(t, "metrics-test", metrics["name"])
	assert.Equal(t, int64(2), metrics["total_calls"])
	assert.Equal(t, int64(1), metrics["total_failures"])
}

func TestDefaultParams_FillsSensibleValues(t *testing.T) {
	p := DefaultParams("svc")
	assert.Equal(t, "svc", p.Name)
	assert.Positive(t, p.FailureThreshold)
	assert.Positive(t, p.RecoveryTimeout)
}
