package queue

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sentinela-labs/sentinela/logging"
)

// DurableStore persists the heap to Redis sorted sets for crash
// recovery. A nil store means the queue is in-memory only.
type DurableStore interface {
	Persist(ctx context.Context, t *Task) error
	Remove(ctx context.Context, taskID string) error
	LoadAll(ctx context.Context) ([]*Task, error)
}

// Queue is a min-heap priority queue ordered by (priority, enqueued_at).
// Pending and processing sets are disjoint; completed and failed sets
// retain results for a configurable retention window.
type Queue struct {
	mu         sync.Mutex
	pending    taskHeap
	processing map[string]*Task
	completed  map[string]*Result
	failed     map[string]*Result

	handlers map[string]Handler

	store           DurableStore
	retention       time.Duration
	totalProcessed  int64
	totalProcessingTime float64

	logger logging.Logger
}

// New builds an empty Queue. store may be nil to disable durable
// backing; retention controls how long clear_completed keeps terminal
// results.
func New(store DurableStore, retention time.Duration, logger logging.Logger) *Queue {
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	if retention <= 0 {
		retention = 60 * time.Minute
	}
	q := &Queue{
		processing: make(map[string]*Task),
		completed:  make(map[string]*Result),
		failed:     make(map[string]*Result),
		handlers:   make(map[string]Handler),
		store:      store,
		retention:  retention,
		logger:     logger,
	}
	heap.Init(&q.pending)
	return q
}

// RegisterHandler binds a type string to a handler. One handler per
// type; the last registration wins.
func (q *Queue) RegisterHandler(taskType string, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[taskType] = handler
	q.logger.Info("task handler registered", map[string]interface{}{"task_type": taskType})
}

// EnqueueOptions are the optional parameters to Enqueue beyond type and
// payload.
type EnqueueOptions struct {
	Priority       Priority
	TimeoutSeconds int
	MaxRetries     int
	CallbackURL    string
	Metadata       map[string]interface{}
}

// Enqueue adds a task to the heap in pending state and returns its ID.
func (q *Queue) Enqueue(ctx context.Context, taskType string, payload map[string]interface{}, opts EnqueueOptions) (string, error) {
	if opts.Priority == 0 {
		opts.Priority = Normal
	}
	if opts.TimeoutSeconds == 0 {
		opts.TimeoutSeconds = 300
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}

	task := &Task{
		Priority:       opts.Priority,
		EnqueuedAt:     time.Now(),
		TaskID:         uuid.NewString(),
		TaskType:       taskType,
		Payload:        payload,
		MaxRetries:     opts.MaxRetries,
		TimeoutSeconds: opts.TimeoutSeconds,
		CallbackURL:    opts.CallbackURL,
		Metadata:       opts.Metadata,
	}

	q.mu.Lock()
	heap.Push(&q.pending, task)
	size := q.pending.Len()
	q.mu.Unlock()

	if q.store != nil {
		if err := q.store.Persist(ctx, task); err != nil {
			q.logger.Warn("failed to persist task to durable store", map[string]interface{}{
				"task_id": task.TaskID, "error": err.Error(),
			})
		}
	}

	q.logger.Info("task enqueued", map[string]interface{}{
		"task_id": task.TaskID, "task_type": taskType, "priority": opts.Priority, "queue_size": size,
	})

	return task.TaskID, nil
}

// Recover rebuilds the in-memory heap from the durable store, used once
// at startup after a crash or restart. Tasks already terminal in the
// store are not tracked there (Persist/Remove keep only pending/
// processing entries), so everything loaded goes straight to pending.
func (q *Queue) Recover(ctx context.Context) error {
	if q.store == nil {
		return nil
	}
	tasks, err := q.store.LoadAll(ctx)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range tasks {
		heap.Push(&q.pending, t)
	}

	q.logger.Info("recovered tasks from durable store", map[string]interface{}{"count": len(tasks)})
	return nil
}

// Dequeue pops the highest-priority pending task and transitions it to
// processing. Returns nil when the queue is empty.
func (q *Queue) Dequeue() *Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending.Len() == 0 {
		return nil
	}
	task := heap.Pop(&q.pending).(*Task)
	q.processing[task.TaskID] = task
	return task
}

// GetTaskStatus returns the task's current status, or "" if unknown.
func (q *Queue) GetTaskStatus(taskID string) Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.processing[taskID]; ok {
		return StatusProcessing
	}
	if _, ok := q.completed[taskID]; ok {
		return StatusCompleted
	}
	if _, ok := q.failed[taskID]; ok {
		return StatusFailed
	}
	for _, t := range q.pending {
		if t.TaskID == taskID {
			return StatusPending
		}
	}
	return ""
}

// GetTaskResult returns the terminal Result for taskID, or nil if not
// yet terminal.
func (q *Queue) GetTaskResult(taskID string) *Result {
	q.mu.Lock()
	defer q.mu.Unlock()

	if r, ok := q.completed[taskID]; ok {
		return r
	}
	if r, ok := q.failed[taskID]; ok {
		return r
	}
	return nil
}

// CancelTask removes a pending task from the heap. Returns false if the
// task is already processing (or unknown).
func (q *Queue) CancelTask(ctx context.Context, taskID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.processing[taskID]; ok {
		return false
	}

	for i, t := range q.pending {
		if t.TaskID == taskID {
			heap.Remove(&q.pending, i)
			if q.store != nil {
				_ = q.store.Remove(ctx, taskID)
			}
			return true
		}
	}
	return false
}

// Stats returns a snapshot of queue state.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	byPriority := make(map[string]int)
	byType := make(map[string]int)
	for _, t := range q.pending {
		byPriority[priorityName(t.Priority)]++
		byType[t.TaskType]++
	}

	var avg float64
	if q.totalProcessed > 0 {
		avg = q.totalProcessingTime / float64(q.totalProcessed)
	}

	return Stats{
		PendingTasks:          q.pending.Len(),
		ProcessingTasks:       len(q.processing),
		CompletedTasks:        len(q.completed),
		FailedTasks:           len(q.failed),
		TotalProcessed:        q.totalProcessed,
		AverageProcessingTime: avg,
		TasksByPriority:       byPriority,
		TasksByType:           byType,
	}
}

// ClearCompleted prunes completed/failed entries older than the
// retention window.
func (q *Queue) ClearCompleted() {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := time.Now().Add(-q.retention)
	remainingCompleted, remainingFailed := 0, 0

	for id, r := range q.completed {
		if r.CompletedAt.Before(cutoff) {
			delete(q.completed, id)
		} else {
			remainingCompleted++
		}
	}
	for id, r := range q.failed {
		if r.CompletedAt.Before(cutoff) {
			delete(q.failed, id)
		} else {
			remainingFailed++
		}
	}

	q.logger.Info("old tasks cleared", map[string]interface{}{
		"remaining_completed": remainingCompleted, "remaining_failed": remainingFailed,
	})
}

func priorityName(p Priority) string {
	switch p {
	case Critical:
		return "CRITICAL"
	case High:
		return "HIGH"
	case Normal:
		return "NORMAL"
	case Low:
		return "LOW"
	case Background:
		return "BACKGROUND"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", p)
	}
}

func (q *Queue) handlerFor(taskType string) (Handler, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	h, ok := q.handlers[taskType]
	return h, ok
}

func (q *Queue) markCompleted(task *Task, result *Result) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.processing, task.TaskID)
	q.completed[task.TaskID] = result
	q.totalProcessed++
	q.totalProcessingTime += result.DurationSeconds
}

func (q *Queue) markFailed(task *Task, result *Result) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.processing, task.TaskID)
	q.failed[task.TaskID] = result
}

func (q *Queue) requeueForRetry(task *Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.processing, task.TaskID)
	heap.Push(&q.pending, task)
}
