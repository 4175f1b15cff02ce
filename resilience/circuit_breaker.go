// Package resilience implements fault-tolerance primitives shared by the
// orchestrator (in-process agent calls) and the transparency client
// (outbound HTTP calls): a circuit breaker contract with two
// implementations, and retry with exponential backoff and jitter.
package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sentinela-labs/sentinela/sentinelerrors"
)

// CircuitBreaker protects a collaborator against cascading failures by
// temporarily blocking calls once a failure threshold is reached.
// States: closed (normal), open (blocking), half-open (probing recovery).
type CircuitBreaker interface {
	Execute(ctx context.Context, fn func() error) error
	ExecuteWithTimeout(ctx context.Context, timeout time.Duration, fn func() error) error
	GetState() string
	GetMetrics() map[string]interface{}
	Reset()
	CanExecute() bool
}

// Params configures a circuit breaker implementation.
type Params struct {
	Name             string
	FailureThreshold int
	RecoveryTimeout  time.Duration
	HalfOpenRequests int
}

// DefaultParams returns sensible defaults for a named circuit breaker.
func DefaultParams(name string) Params {
	return Params{
		Name:             name,
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		HalfOpenRequests: 3,
	}
}

const (
	stateClosed   = "closed"
	stateOpen     = "open"
	stateHalfOpen = "half-open"
)

// InProcessBreaker is a mutex-guarded CircuitBreaker used for
// orchestrator -> agent calls, where both caller and callee live in the
// same process and a simple threshold/timeout model is sufficient.
type InProcessBreaker struct {
	params Params

	mu              sync.RWMutex
	state           string
	failureCount    int
	successCount    int
	halfOpenCount   int
	lastFailureTime time.Time
	totalCalls      int64
	totalFailures   int64
}

// NewInProcessBreaker builds an InProcessBreaker in the closed state.
func NewInProcessBreaker(params Params) *InProcessBreaker {
	if params.FailureThreshold <= 0 {
		params.FailureThreshold = 5
	}
	if params.RecoveryTimeout <= 0 {
		params.RecoveryTimeout = 30 * time.Second
	}
	if params.HalfOpenRequests <= 0 {
		params.HalfOpenRequests = 3
	}
	return &InProcessBreaker{
		params: params,
		state:  stateClosed,
	}
}

func (cb *InProcessBreaker) CanExecute() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.canExecuteLocked()
}

func (cb *InProcessBreaker) canExecuteLocked() bool {
	switch cb.state {
	case stateOpen:
		return time.Since(cb.lastFailureTime) > cb.params.RecoveryTimeout
	case stateHalfOpen:
		return cb.halfOpenCount < cb.params.HalfOpenRequests
	default:
		return true
	}
}

func (cb *InProcessBreaker) Execute(ctx context.Context, fn func() error) error {
	cb.mu.Lock()
	if !cb.canExecuteLocked() {
		cb.mu.Unlock()
		return sentinelerrors.ErrCircuitBreakerOpen
	}
	if cb.state == stateOpen {
		cb.state = stateHalfOpen
		cb.halfOpenCount = 0
	}
	if cb.state == stateHalfOpen {
		cb.halfOpenCount++
	}
	cb.totalCalls++
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.recordFailureLocked()
		return err
	}
	cb.recordSuccessLocked()
	return nil
}

func (cb *InProcessBreaker) ExecuteWithTimeout(ctx context.Context, timeout time.Duration, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- cb.Execute(ctx, fn)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		cb.mu.Lock()
		cb.recordFailureLocked()
		cb.mu.Unlock()
		return fmt.Errorf("%w: %v", sentinelerrors.ErrTimeout, ctx.Err())
	}
}

func (cb *InProcessBreaker) recordFailureLocked() {
	cb.failureCount++
	cb.totalFailures++
	cb.lastFailureTime = time.Now()

	if cb.state == stateHalfOpen || cb.failureCount >= cb.params.FailureThreshold {
		cb.state = stateOpen
	}
}

func (cb *InProcessBreaker) recordSuccessLocked() {
	cb.successCount++
	if cb.state == stateHalfOpen {
		cb.state = stateClosed
		cb.failureCount = 0
		cb.halfOpenCount = 0
	}
}

func (cb *InProcessBreaker) GetState() string {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

func (cb *InProcessBreaker) GetMetrics() map[string]interface{} {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return map[string]interface{}{
		"name":           cb.params.Name,
		"state":          cb.state,
		"failure_count":  cb.failureCount,
		"success_count":  cb.successCount,
		"total_calls":    cb.totalCalls,
		"total_failures": cb.totalFailures,
	}
}

func (cb *InProcessBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = stateClosed
	cb.failureCount = 0
	cb.halfOpenCount = 0
}
