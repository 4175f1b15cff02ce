package sentinelerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngineError_ErrorFormatsOpAndIDWhenPresent(t *testing.T) {
	err := New("orchestrator.Investigate", "agent", ErrAgentNotFound).WithID("anomaly_detector")
	assert.Equal(t, `orchestrator.Investigate [anomaly_detector]: agent not found in registry`, err.Error())
}

func TestEngineError_ErrorFormatsOpWithoutIDWhenAbsent(t *testing.T) {
	err := New("queue.Enqueue", "queue", ErrQueueClosed)
	assert.Equal(t, "queue.Enqueue: queue is stopped", err.Error())
}

func TestEngineError_ErrorFallsBackToMessageWhenNoOpOrErr(t *testing.T) {
	err := &EngineError{Kind: "config", Message: "missing field"}
	assert.Equal(t, "missing field", err.Error())
}

func TestEngineError_ErrorFallsBackToKindWhenNothingElseSet(t *testing.T) {
	err := &EngineError{Kind: "config"}
	assert.Equal(t, "config error", err.Error())
}

func TestEngineError_UnwrapSupportsErrorsIs(t *testing.T) {
	err := New("store.CreateAlert", "not_found", ErrTaskNotFound)
	assert.True(t, errors.Is(err, ErrTaskNotFound))
	assert.False(t, errors.Is(err, ErrAgentNotFound))
}

func TestEngineError_UnwrapSupportsErrorsAs(t *testing.T) {
	err := New("store.CreateAlert", "not_found", ErrTaskNotFound)
	var target *EngineError
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, "store.CreateAlert", target.Op)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrTimeout))
	assert.True(t, IsRetryable(ErrConnectionFailed))
	assert.True(t, IsRetryable(ErrRequestFailed))
	assert.True(t, IsRetryable(ErrRateLimited))
	assert.True(t, IsRetryable(ErrAgentUnavailable))
	assert.False(t, IsRetryable(ErrInvariantViolation))
	assert.False(t, IsRetryable(nil))
}

func TestIsRetryable_WrappedErrorStillMatches(t *testing.T) {
	wrapped := New("http.Do", "external", ErrConnectionFailed)
	assert.True(t, IsRetryable(wrapped))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrAgentNotFound))
	assert.True(t, IsNotFound(ErrTaskNotFound))
	assert.False(t, IsNotFound(ErrTimeout))
}

func TestIsConfigurationError(t *testing.T) {
	assert.True(t, IsConfigurationError(ErrInvalidInput))
	assert.True(t, IsConfigurationError(ErrInvalidPlan))
	assert.False(t, IsConfigurationError(ErrTimeout))
}

func TestIsStateError(t *testing.T) {
	assert.True(t, IsStateError(ErrQueueClosed))
	assert.True(t, IsStateError(ErrQueueAlreadyStarted))
	assert.True(t, IsStateError(ErrTaskAlreadyProcessing))
	assert.False(t, IsStateError(ErrTimeout))
}
