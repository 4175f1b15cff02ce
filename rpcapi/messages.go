package rpcapi

import "time"

// InvestigateRequest submits an ad hoc query for full investigation.
type InvestigateRequest struct {
	Query string `json:"query"`
}

// InvestigateResponse mirrors orchestrator.Result's caller-facing shape.
type InvestigateResponse struct {
	InvestigationID string                   `json:"investigation_id"`
	Status          string                   `json:"status"`
	Findings        []map[string]interface{} `json:"findings"`
	Sources         []string                 `json:"sources"`
	Confidence      float64                  `json:"confidence"`
	Explanation     string                   `json:"explanation"`
	Error           string                   `json:"error,omitempty"`
}

// MonitorProgressRequest asks for an in-flight investigation's progress.
type MonitorProgressRequest struct {
	InvestigationID string `json:"investigation_id"`
}

// MonitorProgressResponse mirrors orchestrator.Progress.
type MonitorProgressResponse struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
}

// TriggerMonitorRunRequest kicks off one auto-investigation monitor pass.
type TriggerMonitorRunRequest struct {
	LookbackHours      int      `json:"lookback_hours"`
	OrganizationCodes  []string `json:"organization_codes,omitempty"`
	HistoricalMode     bool     `json:"historical_mode,omitempty"`
	MonthsBack         int      `json:"months_back,omitempty"`
	BatchSize          int      `json:"batch_size,omitempty"`
}

// TriggerMonitorRunResponse mirrors monitor.RunSummary.
type TriggerMonitorRunResponse struct {
	MonitoringType        string  `json:"monitoring_type"`
	ContractsAnalyzed     int     `json:"contracts_analyzed"`
	SuspiciousFound       int     `json:"suspicious_found"`
	InvestigationsCreated int     `json:"investigations_created"`
	AnomaliesDetected     int     `json:"anomalies_detected"`
	DurationSeconds       float64 `json:"duration_seconds"`
	Error                 string  `json:"error,omitempty"`
}

// EnqueueTaskRequest submits a task onto the priority queue.
type EnqueueTaskRequest struct {
	TaskType    string                 `json:"task_type"`
	Payload     map[string]interface{} `json:"payload"`
	Priority    int                    `json:"priority"`
	MaxRetries  int                    `json:"max_retries"`
	TimeoutSecs int                    `json:"timeout_seconds"`
	CallbackURL string                 `json:"callback_url,omitempty"`
}

// EnqueueTaskResponse carries the assigned task ID.
type EnqueueTaskResponse struct {
	TaskID string `json:"task_id"`
	Error  string `json:"error,omitempty"`
}

// GetTaskStatusRequest looks up one task's lifecycle state.
type GetTaskStatusRequest struct {
	TaskID string `json:"task_id"`
}

// GetTaskStatusResponse reports status and, if completed, the result.
type GetTaskStatusResponse struct {
	TaskID string                 `json:"task_id"`
	Status string                 `json:"status"`
	Result map[string]interface{} `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// ListScheduledTasksRequest takes no parameters; kept as a message type
// for symmetry with the rest of the surface and future filtering.
type ListScheduledTasksRequest struct{}

// ScheduledTaskInfo is one entry in ListScheduledTasksResponse.
type ScheduledTaskInfo struct {
	Name     string    `json:"name"`
	TaskType string    `json:"task_type"`
	Interval string    `json:"interval"`
	LastRun  time.Time `json:"last_run,omitempty"`
}

// ListScheduledTasksResponse enumerates the periodic scheduler's jobs.
type ListScheduledTasksResponse struct {
	Tasks []ScheduledTaskInfo `json:"tasks"`
}

// GetOrchestratorStatsRequest takes no parameters.
type GetOrchestratorStatsRequest struct{}

// GetOrchestratorStatsResponse mirrors orchestrator.Metrics plus
// executor.Stats, so one call surfaces both halves of the engine's
// runtime health.
type GetOrchestratorStatsResponse struct {
	TotalInvestigations   int64   `json:"total_investigations"`
	FailedInvestigations  int64   `json:"failed_investigations"`
	AverageLatencyMs      float64 `json:"average_latency_ms"`
	ExecutorStats         map[string]interface{} `json:"executor_stats"`
}
