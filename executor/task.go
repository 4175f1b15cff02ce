// Package executor runs agent invocations concurrently under a bounded
// semaphore, implementing the four dispatch strategies the orchestrator
// selects per dependency group.
package executor

import (
	"time"

	"github.com/sentinela-labs/sentinela/agent"
)

// Strategy selects how ExecuteParallel treats sibling task failures and
// when it returns.
type Strategy string

const (
	// AllSucceed runs every task and returns all results; logs a warning
	// if any failed but never aborts siblings.
	AllSucceed Strategy = "ALL_SUCCEED"
	// BestEffort runs every task and returns all results, successful or
	// not, with no warning threshold.
	BestEffort Strategy = "BEST_EFFORT"
	// FirstSuccess returns as soon as one task succeeds, cancelling the
	// rest; the result list holds everything gathered up to that point.
	FirstSuccess Strategy = "FIRST_SUCCESS"
	// MajorityVote runs every task and logs a warning if fewer than
	// ceil(N/2) succeeded.
	MajorityVote Strategy = "MAJORITY_VOTE"
)

// Task is one agent invocation to run under ExecuteParallel.
type Task struct {
	ID        string
	AgentRef  string
	Message   agent.Message
	Timeout   time.Duration
	Weight    float64
	Fallback  func() (*agent.Response, error)
}

// Result is the outcome of running one Task.
type Result struct {
	TaskID        string                 `json:"task_id"`
	AgentName     string                 `json:"agent_name"`
	Success       bool                   `json:"success"`
	Result        map[string]interface{} `json:"result,omitempty"`
	Error         string                 `json:"error,omitempty"`
	ExecutionTime time.Duration          `json:"execution_time"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}
