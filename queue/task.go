// Package queue implements the Priority Task Queue and Worker Pool: a
// min-heap ordered by (priority, enqueued_at), a fixed-size worker pool
// that polls it, retry with exponential backoff, callback delivery, and
// a periodic scheduler.
package queue

import (
	"context"
	"time"
)

// Priority orders tasks; lower values run first.
type Priority int

const (
	Critical   Priority = 1
	High       Priority = 2
	Normal     Priority = 3
	Low        Priority = 4
	Background Priority = 5
)

// Status is the lifecycle state of a Task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusRetry      Status = "retry"
)

// Task is one element of the priority heap.
type Task struct {
	Priority      Priority
	EnqueuedAt    time.Time
	TaskID        string
	TaskType      string
	Payload       map[string]interface{}
	RetryCount    int
	MaxRetries    int
	TimeoutSeconds int
	CallbackURL   string
	Metadata      map[string]interface{}

	heapIndex int
}

// Result is the terminal or in-flight record for a Task, held in the
// completed/failed sets (or returned transiently for pending/processing).
type Result struct {
	TaskID           string      `json:"task_id"`
	Status           Status      `json:"status"`
	Result           interface{} `json:"result,omitempty"`
	Error            string      `json:"error,omitempty"`
	StartedAt        time.Time   `json:"started_at"`
	CompletedAt      time.Time   `json:"completed_at"`
	DurationSeconds  float64     `json:"duration_seconds"`
	RetryCount       int         `json:"retry_count"`
}

// Stats summarizes queue state across pending/processing/completed/failed.
type Stats struct {
	PendingTasks           int            `json:"pending_tasks"`
	ProcessingTasks        int            `json:"processing_tasks"`
	CompletedTasks         int            `json:"completed_tasks"`
	FailedTasks            int            `json:"failed_tasks"`
	TotalProcessed         int64          `json:"total_processed"`
	AverageProcessingTime  float64        `json:"average_processing_time"`
	TasksByPriority        map[string]int `json:"tasks_by_priority"`
	TasksByType            map[string]int `json:"tasks_by_type"`
}

// Handler processes one task's payload/metadata and returns a result
// value or an error.
type Handler func(ctx context.Context, payload map[string]interface{}, metadata map[string]interface{}) (interface{}, error)
