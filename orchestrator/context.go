package orchestrator

import "time"

// InvestigationContext is created when an investigation begins and ends
// when the orchestrator returns a result or fails terminally.
type InvestigationContext struct {
	InvestigationID string                 `json:"investigation_id"`
	UserID          string                 `json:"user_id"`
	SessionID       string                 `json:"session_id"`
	TraceID         string                 `json:"trace_id"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	StartedAt       time.Time              `json:"started_at"`
}

// Result is the InvestigationResult produced by Investigate.
type Result struct {
	InvestigationID  string                   `json:"investigation_id"`
	Query            string                   `json:"query"`
	Findings         []map[string]interface{} `json:"findings"`
	Sources          []string                 `json:"sources"`
	ConfidenceScore  float64                  `json:"confidence_score"`
	Explanation      string                   `json:"explanation"`
	Metadata         map[string]interface{}   `json:"metadata"`
	ProcessingTimeMs int64                    `json:"processing_time_ms"`
	Timestamp        time.Time                `json:"timestamp"`
}

// ProgressStatus is the status enum returned by MonitorProgress.
type ProgressStatus string

const (
	ProgressNotFound  ProgressStatus = "not_found"
	ProgressRunning   ProgressStatus = "running"
	ProgressCompleted ProgressStatus = "completed"
	ProgressFailed    ProgressStatus = "failed"
)

// Progress is the output of MonitorProgress.
type Progress struct {
	Status   ProgressStatus `json:"status"`
	Plan     *Plan          `json:"plan,omitempty"`
	Progress float64        `json:"progress"`
}
