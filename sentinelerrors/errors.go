// Package sentinelerrors defines the engine's closed error taxonomy: a set
// of sentinel errors for comparison with errors.Is, a structured
// EngineError for attaching operation context, and predicate helpers used
// by callers that need to decide whether to retry, surface, or swallow.
package sentinelerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors, grouped by the taxonomy in the error handling design.
var (
	// Input errors
	ErrMissingQuery  = errors.New("query is required")
	ErrInvalidPlan   = errors.New("invalid investigation plan")
	ErrInvalidInput  = errors.New("invalid input")

	// Agent/registry errors
	ErrAgentNotFound     = errors.New("agent not found in registry")
	ErrAgentUnavailable  = errors.New("agent unavailable")
	ErrAgentAlreadyExists = errors.New("agent already registered")
	ErrCapabilityMissing = errors.New("agent does not support reflect")

	// Operation errors
	ErrTimeout            = errors.New("operation timeout")
	ErrContextCanceled    = errors.New("context canceled")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")

	// Queue errors
	ErrQueueClosed       = errors.New("queue is stopped")
	ErrQueueAlreadyStarted = errors.New("queue already started")
	ErrTaskNotFound      = errors.New("task not found")
	ErrTaskAlreadyProcessing = errors.New("task already processing")
	ErrNoHandlerRegistered = errors.New("no handler registered for task type")

	// External collaborator errors
	ErrConnectionFailed = errors.New("connection failed")
	ErrRequestFailed     = errors.New("request failed")
	ErrRateLimited       = errors.New("rate limited")
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

	// Invariant errors
	ErrInvariantViolation = errors.New("internal invariant violation")
)

// EngineError carries structured context about a failed operation and
// supports errors.Is/errors.As through Unwrap.
type EngineError struct {
	Op      string // e.g. "orchestrator.Investigate"
	Kind    string // e.g. "agent", "queue", "config"
	ID      string // optional identifier of the entity involved
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Op != "" && e.Err != nil {
		if e.ID != "" {
			return fmt.Sprintf("%s [%s]: %v", e.Op, e.ID, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// New creates a new EngineError.
func New(op, kind string, err error) *EngineError {
	return &EngineError{Op: op, Kind: kind, Err: err}
}

// WithID attaches an entity ID to an EngineError, for cleaner log lines.
func (e *EngineError) WithID(id string) *EngineError {
	e.ID = id
	return e
}

// IsRetryable reports whether err represents a transient condition worth
// retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConnectionFailed) ||
		errors.Is(err, ErrRequestFailed) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrAgentUnavailable)
}

// IsNotFound reports whether err represents a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAgentNotFound) ||
		errors.Is(err, ErrTaskNotFound)
}

// IsConfigurationError reports whether err stems from invalid configuration.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidPlan)
}

// IsStateError reports whether err stems from an invalid state transition.
func IsStateError(err error) bool {
	return errors.Is(err, ErrQueueClosed) ||
		errors.Is(err, ErrQueueAlreadyStarted) ||
		errors.Is(err, ErrTaskAlreadyProcessing)
}
