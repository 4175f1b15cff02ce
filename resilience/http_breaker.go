package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/sentinela-labs/sentinela/sentinelerrors"
)

// HTTPBreaker wraps sony/gobreaker to satisfy the CircuitBreaker
// interface for the transparency client's outbound calls, a boundary
// against a flaky third-party API that gobreaker is built for.
type HTTPBreaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewHTTPBreaker builds an HTTPBreaker, tripping open once consecutive
// failures reach params.FailureThreshold and probing recovery after
// params.RecoveryTimeout.
func NewHTTPBreaker(params Params) *HTTPBreaker {
	if params.FailureThreshold <= 0 {
		params.FailureThreshold = 5
	}
	if params.RecoveryTimeout <= 0 {
		params.RecoveryTimeout = 30 * time.Second
	}
	if params.HalfOpenRequests <= 0 {
		params.HalfOpenRequests = 3
	}

	settings := gobreaker.Settings{
		Name:        params.Name,
		MaxRequests: uint32(params.HalfOpenRequests),
		Timeout:     params.RecoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(params.FailureThreshold)
		},
	}

	return &HTTPBreaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

func (h *HTTPBreaker) Execute(ctx context.Context, fn func() error) error {
	_, err := h.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return sentinelerrors.ErrCircuitBreakerOpen
	}
	return err
}

func (h *HTTPBreaker) ExecuteWithTimeout(ctx context.Context, timeout time.Duration, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- h.Execute(ctx, fn) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", sentinelerrors.ErrTimeout, ctx.Err())
	}
}

func (h *HTTPBreaker) GetState() string {
	switch h.cb.State() {
	case gobreaker.StateOpen:
		return stateOpen
	case gobreaker.StateHalfOpen:
		return stateHalfOpen
	default:
		return stateClosed
	}
}

func (h *HTTPBreaker) GetMetrics() map[string]interface{} {
	counts := h.cb.Counts()
	return map[string]interface{}{
		"name":                  h.cb.Name(),
		"state":                 h.GetState(),
		"requests":              counts.Requests,
		"total_successes":       counts.TotalSuccesses,
		"total_failures":        counts.TotalFailures,
		"consecutive_successes": counts.ConsecutiveSuccesses,
		"consecutive_failures":  counts.ConsecutiveFailures,
	}
}

// Reset is a no-op: gobreaker does not expose manual reset, and the
// natural recovery-timeout probe serves the same purpose.
func (h *HTTPBreaker) Reset() {}

func (h *HTTPBreaker) CanExecute() bool {
	return h.GetState() != stateOpen
}
