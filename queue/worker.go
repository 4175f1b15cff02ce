package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/sentinela-labs/sentinela/logging"
	"github.com/sentinela-labs/sentinela/sentinelerrors"
)

// pollInterval is how often an idle worker checks the heap for pending
// work.
const pollInterval = 100 * time.Millisecond

// callbackEnvelope is the exact POST body delivered on task completion.
type callbackEnvelope struct {
	TaskID          string      `json:"task_id"`
	TaskType        string      `json:"task_type"`
	Status          Status      `json:"status"`
	Result          interface{} `json:"result,omitempty"`
	Error           string      `json:"error,omitempty"`
	DurationSeconds float64     `json:"duration_seconds"`
}

// Pool runs a fixed number of workers that poll a Queue, invoke the
// registered handler for each task's type, and apply retry-with-backoff
// on failure.
type Pool struct {
	queue      *Queue
	numWorkers int
	httpClient *http.Client
	logger     logging.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPool builds a worker pool of numWorkers long-lived goroutines over
// queue. It is idempotent to Start/Stop repeatedly.
func NewPool(queue *Queue, numWorkers int, logger logging.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	return &Pool{
		queue:      queue,
		numWorkers: numWorkers,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Start launches the worker goroutines. Calling Start while already
// running is a no-op.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		p.logger.Debug("worker pool already running", nil)
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.runWorker(runCtx, i)
	}

	p.logger.Info("queue worker pool started", map[string]interface{}{"num_workers": p.numWorkers})
}

// Stop signals all workers to exit and waits for them to drain. Calling
// Stop while not running is a no-op.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
	p.logger.Info("queue worker pool stopped", nil)
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task := p.queue.Dequeue()
		if task == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollInterval):
			}
			continue
		}

		p.processTask(ctx, task)
	}
}

func (p *Pool) processTask(ctx context.Context, task *Task) {
	handler, ok := p.queue.handlerFor(task.TaskType)
	if !ok {
		err := sentinelerrors.New("queue.processTask", "not_found", sentinelerrors.ErrNoHandlerRegistered).WithID(task.TaskType)
		p.failTerminal(ctx, task, time.Now(), err)
		return
	}

	started := time.Now()
	taskCtx, cancel := context.WithTimeout(ctx, time.Duration(task.TimeoutSeconds)*time.Second)
	defer cancel()

	value, err := handler(taskCtx, task.Payload, task.Metadata)
	if err != nil {
		p.handleFailure(ctx, task, started, err)
		return
	}

	result := &Result{
		TaskID:          task.TaskID,
		Status:          StatusCompleted,
		Result:          value,
		StartedAt:       started,
		CompletedAt:     time.Now(),
		DurationSeconds: time.Since(started).Seconds(),
		RetryCount:      task.RetryCount,
	}
	p.queue.markCompleted(task, result)
	if p.queue.store != nil {
		_ = p.queue.store.Remove(ctx, task.TaskID)
	}
	p.deliverCallback(task, result)
}

// handleFailure applies the backoff schedule: retry_count increments,
// sleeps min(2^retry_count, 60) seconds, then requeues if retry_count is
// still within max_retries. Past that point the task fails terminally.
func (p *Pool) handleFailure(ctx context.Context, task *Task, started time.Time, cause error) {
	task.RetryCount++

	if task.RetryCount <= task.MaxRetries {
		backoff := time.Duration(math.Min(math.Pow(2, float64(task.RetryCount)), 60)) * time.Second
		p.logger.Warn("task failed, scheduling retry", map[string]interface{}{
			"task_id": task.TaskID, "retry_count": task.RetryCount, "backoff_seconds": backoff.Seconds(), "error": cause.Error(),
		})

		go func() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			p.queue.requeueForRetry(task)
		}()
		return
	}

	p.failTerminal(ctx, task, started, cause)
}

func (p *Pool) failTerminal(ctx context.Context, task *Task, started time.Time, cause error) {
	result := &Result{
		TaskID:          task.TaskID,
		Status:          StatusFailed,
		Error:           cause.Error(),
		StartedAt:       started,
		CompletedAt:     time.Now(),
		DurationSeconds: time.Since(started).Seconds(),
		RetryCount:      task.RetryCount,
	}
	p.queue.markFailed(task, result)
	if p.queue.store != nil {
		_ = p.queue.store.Remove(ctx, task.TaskID)
	}
	p.logger.Error("task failed terminally", map[string]interface{}{
		"task_id": task.TaskID, "retry_count": task.RetryCount, "error": cause.Error(),
	})
	p.deliverCallback(task, result)
}

// deliverCallback POSTs the completion envelope to task.CallbackURL on a
// best-effort basis: failures are logged, never retried.
func (p *Pool) deliverCallback(task *Task, result *Result) {
	if task.CallbackURL == "" {
		return
	}

	envelope := callbackEnvelope{
		TaskID:          task.TaskID,
		TaskType:        task.TaskType,
		Status:          result.Status,
		Result:          result.Result,
		Error:           result.Error,
		DurationSeconds: result.DurationSeconds,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		p.logger.Error("failed to marshal callback envelope", map[string]interface{}{"task_id": task.TaskID, "error": err.Error()})
		return
	}

	resp, err := p.httpClient.Post(task.CallbackURL, "application/json", bytes.NewReader(body))
	if err != nil {
		p.logger.Warn("callback delivery failed", map[string]interface{}{"task_id": task.TaskID, "error": err.Error()})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		p.logger.Warn("callback endpoint returned non-2xx", map[string]interface{}{
			"task_id": task.TaskID, "status": fmt.Sprintf("%d", resp.StatusCode),
		})
	}
}
