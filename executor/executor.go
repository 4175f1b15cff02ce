package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sentinela-labs/sentinela/agent"
	"github.com/sentinela-labs/sentinela/logging"
	"github.com/sentinela-labs/sentinela/telemetry"
)

// Stats tracks running totals across every ExecuteParallel call made
// through one Executor instance.
type Stats struct {
	mu             sync.Mutex
	TotalTasks     int64
	SuccessfulTasks int64
	FailedTasks    int64
	TotalTime      time.Duration
}

func (s *Stats) record(results []Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range results {
		s.TotalTasks++
		s.TotalTime += r.ExecutionTime
		if r.Success {
			s.SuccessfulTasks++
		} else {
			s.FailedTasks++
		}
	}
}

// Snapshot returns derived statistics: avg_success_rate, avg_execution_time.
func (s *Stats) Snapshot() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	var avgSuccessRate, avgExecutionTime float64
	if s.TotalTasks > 0 {
		avgSuccessRate = float64(s.SuccessfulTasks) / float64(s.TotalTasks)
		avgExecutionTime = float64(s.TotalTime) / float64(s.TotalTasks)
	}
	return map[string]interface{}{
		"total_tasks":        s.TotalTasks,
		"successful_tasks":   s.SuccessfulTasks,
		"failed_tasks":       s.FailedTasks,
		"total_time":         s.TotalTime,
		"avg_success_rate":   avgSuccessRate,
		"avg_execution_time": avgExecutionTime,
	}
}

// Executor runs Tasks concurrently under a bounded semaphore, via agents
// resolved from a Registry and optionally lent from a Pool.
type Executor struct {
	registry      *agent.Registry
	pool          *agent.Pool
	maxConcurrent int64
	defaultTimeout time.Duration
	logger        logging.Logger
	telemetry     telemetry.Telemetry
	stats         *Stats
}

// New builds an Executor. maxConcurrent bounds simultaneously-running
// tasks (default 3-5 per the concurrency model); defaultTimeout applies
// to tasks that don't set their own.
func New(registry *agent.Registry, pool *agent.Pool, maxConcurrent int, defaultTimeout time.Duration, logger logging.Logger, tel telemetry.Telemetry) *Executor {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	if defaultTimeout <= 0 {
		defaultTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	if tel == nil {
		tel = telemetry.NoOpTelemetry{}
	}
	return &Executor{
		registry:       registry,
		pool:           pool,
		maxConcurrent:  int64(maxConcurrent),
		defaultTimeout: defaultTimeout,
		logger:         logger,
		telemetry:      tel,
		stats:          &Stats{},
	}
}

// Stats returns the executor's cumulative statistics.
func (e *Executor) Stats() *Stats { return e.stats }

// ExecuteParallel runs tasks under the given strategy, bounded by the
// executor's concurrency semaphore.
func (e *Executor) ExecuteParallel(ctx context.Context, tasks []Task, strategy Strategy) []Result {
	ctx, span := e.telemetry.StartSpan(ctx, "executor.ExecuteParallel")
	defer span.End()
	span.SetAttribute("strategy", string(strategy))
	span.SetAttribute("task_count", len(tasks))

	switch strategy {
	case FirstSuccess:
		return e.executeFirstSuccess(ctx, tasks)
	default:
		results := e.executeAll(ctx, tasks)
		e.logStrategyOutcome(strategy, results)
		return results
	}
}

func (e *Executor) logStrategyOutcome(strategy Strategy, results []Result) {
	successCount := 0
	for _, r := range results {
		if r.Success {
			successCount++
		}
	}

	switch strategy {
	case AllSucceed:
		if successCount < len(results) {
			e.logger.Warn("not all tasks succeeded under ALL_SUCCEED", map[string]interface{}{
				"total": len(results), "successful": successCount,
			})
		}
	case MajorityVote:
		majority := (len(results) + 1) / 2
		if successCount < majority {
			e.logger.Warn("fewer than majority succeeded under MAJORITY_VOTE", map[string]interface{}{
				"total": len(results), "successful": successCount, "majority_required": majority,
			})
		}
	}
}

// executeAll runs every task concurrently under the semaphore and waits
// for all of them, used by ALL_SUCCEED, BEST_EFFORT, and MAJORITY_VOTE.
func (e *Executor) executeAll(ctx context.Context, tasks []Task) []Result {
	sem := semaphore.NewWeighted(e.maxConcurrent)
	results := make([]Result, len(tasks))
	var wg sync.WaitGroup

	for i, t := range tasks {
		i, t := i, t
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = Result{TaskID: t.ID, AgentName: t.AgentRef, Success: false, Error: err.Error()}
				return
			}
			defer sem.Release(1)
			results[i] = e.runTask(ctx, t)
		}()
	}
	wg.Wait()

	e.stats.record(results)
	return results
}

// executeFirstSuccess runs tasks concurrently, returning as soon as one
// succeeds and cancelling the rest. The returned list holds every result
// gathered up to and including the first success.
func (e *Executor) executeFirstSuccess(ctx context.Context, tasks []Task) []Result {
	cancelCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := semaphore.NewWeighted(e.maxConcurrent)
	resultCh := make(chan Result, len(tasks))
	var wg sync.WaitGroup

	for _, t := range tasks {
		t := t
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(cancelCtx, 1); err != nil {
				return
			}
			defer sem.Release(1)
			resultCh <- e.runTask(cancelCtx, t)
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var gathered []Result
	for r := range resultCh {
		gathered = append(gathered, r)
		if r.Success {
			cancel()
			// Drain remaining sends from in-flight goroutines so they
			// don't block forever on a full channel after we stop reading.
			go func() {
				for range resultCh {
				}
			}()
			break
		}
	}

	e.stats.record(gathered)
	return gathered
}

func (e *Executor) runTask(ctx context.Context, t Task) Result {
	start := time.Now()

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}

	lease, err := e.acquireAgent(ctx, t.AgentRef)
	if err != nil {
		return Result{
			TaskID: t.ID, AgentName: t.AgentRef, Success: false,
			Error: err.Error(), ExecutionTime: time.Since(start),
		}
	}
	if lease != nil {
		defer lease.Release()
	}

	resp, err := e.invokeWithTimeout(ctx, lease, t, timeout)
	if err == nil && resp != nil && resp.Status != agent.StatusError {
		return Result{
			TaskID: t.ID, AgentName: t.AgentRef, Success: true,
			Result: resp.Result, Metadata: resp.Metadata,
			ExecutionTime: time.Since(start),
		}
	}

	if t.Fallback != nil {
		if fbResp, fbErr := t.Fallback(); fbErr == nil && fbResp != nil {
			meta := fbResp.Metadata
			if meta == nil {
				meta = map[string]interface{}{}
			}
			meta["used_fallback"] = true
			return Result{
				TaskID: t.ID, AgentName: t.AgentRef, Success: true,
				Result: fbResp.Result, Metadata: meta,
				ExecutionTime: time.Since(start),
			}
		}
	}

	errMsg := ""
	switch {
	case err != nil:
		errMsg = err.Error()
	case resp != nil && resp.Error != "":
		errMsg = resp.Error
	default:
		errMsg = "unknown execution failure"
	}

	return Result{
		TaskID: t.ID, AgentName: t.AgentRef, Success: false,
		Error: errMsg, ExecutionTime: time.Since(start),
	}
}

func (e *Executor) acquireAgent(ctx context.Context, name string) (*agent.Lease, error) {
	if e.pool != nil && e.pool.Enabled {
		return e.pool.Acquire(ctx, name)
	}
	// Pooling disabled: resolve directly through the registry, a fresh
	// lookup per task rather than a lent, reusable instance.
	a, err := e.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	return &agent.Lease{Agent: a}, nil
}

func (e *Executor) invokeWithTimeout(ctx context.Context, lease *agent.Lease, t Task, timeout time.Duration) (*agent.Response, error) {
	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		resp *agent.Response
		err  error
	}
	ch := make(chan outcome, 1)
	go func() {
		resp, err := lease.Agent.Process(taskCtx, t.Message)
		ch <- outcome{resp, err}
	}()

	select {
	case o := <-ch:
		return o.resp, o.err
	case <-taskCtx.Done():
		return &agent.Response{
			AgentName: t.AgentRef,
			Status:    agent.StatusError,
			Error:     fmt.Sprintf("timeout after %s", timeout),
		}, taskCtx.Err()
	}
}
