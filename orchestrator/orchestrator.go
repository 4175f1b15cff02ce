package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/sentinela-labs/sentinela/agent"
	"github.com/sentinela-labs/sentinela/executor"
	"github.com/sentinela-labs/sentinela/logging"
	"github.com/sentinela-labs/sentinela/sentinelerrors"
	"github.com/sentinela-labs/sentinela/telemetry"
)

// Metrics tracks cumulative orchestrator activity.
type Metrics struct {
	TotalInvestigations   int64
	FailedInvestigations  int64
	AverageLatency        time.Duration
}

// ExecutionRecord is one entry in the bounded execution history, kept for
// MonitorProgress and operator inspection.
type ExecutionRecord struct {
	InvestigationID string
	Query           string
	Plan            *Plan
	Result          *Result
	Progress        float64
	Status          ProgressStatus
	StartedAt       time.Time
	CompletedAt     time.Time
}

const maxHistorySize = 500

// Orchestrator is the Master Orchestrator: query -> plan -> dispatch ->
// reflect -> (optionally) adapt.
type Orchestrator struct {
	registry *agent.Registry
	planner  *Planner
	exec     *executor.Executor
	logger   logging.Logger
	tel      telemetry.Telemetry

	cache      *gocache.Cache
	cacheTTL   time.Duration

	historyMu sync.RWMutex
	history   map[string]*ExecutionRecord

	metricsMu sync.Mutex
	metrics   Metrics
}

// New builds an Orchestrator. cacheTTL of 0 disables response caching.
func New(registry *agent.Registry, planner *Planner, exec *executor.Executor, logger logging.Logger, tel telemetry.Telemetry, cacheTTL time.Duration) *Orchestrator {
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	if tel == nil {
		tel = telemetry.NoOpTelemetry{}
	}

	var cache *gocache.Cache
	if cacheTTL > 0 {
		cache = gocache.New(cacheTTL, cacheTTL*2)
	}

	return &Orchestrator{
		registry: registry,
		planner:  planner,
		exec:     exec,
		logger:   logger,
		tel:      tel,
		cache:    cache,
		cacheTTL: cacheTTL,
		history:  make(map[string]*ExecutionRecord),
	}
}

// PlanInvestigation runs plan generation only, without executing it.
func (o *Orchestrator) PlanInvestigation(query string) (*Plan, error) {
	if strings.TrimSpace(query) == "" {
		return nil, sentinelerrors.New("orchestrator.PlanInvestigation", "input", sentinelerrors.ErrMissingQuery)
	}
	return o.planner.GeneratePlan(query)
}

// Investigate turns query into a plan, executes it group by group under
// BEST_EFFORT, reflects on the aggregated result (recorded under
// Metadata["reflection"]), and returns a Result keyed by investigationID.
// An empty investigationID is replaced by a freshly generated one.
func (o *Orchestrator) Investigate(ctx context.Context, investigationID, query string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, sentinelerrors.New("orchestrator.Investigate", "input", sentinelerrors.ErrMissingQuery)
	}
	if investigationID == "" {
		investigationID = uuid.NewString()
	}

	ctx, span := o.tel.StartSpan(ctx, "orchestrator.Investigate")
	defer span.End()
	span.SetAttribute("investigation_id", investigationID)

	start := time.Now()
	o.incrementTotal()

	if cached, ok := o.checkCache(query); ok {
		o.logger.Debug("returning cached investigation result", map[string]interface{}{"investigation_id": investigationID})
		return cached, nil
	}

	plan, err := o.planner.GeneratePlan(query)
	if err != nil {
		o.incrementFailed()
		return nil, sentinelerrors.New("orchestrator.Investigate", "plan", err).WithID(investigationID)
	}

	record := &ExecutionRecord{
		InvestigationID: investigationID,
		Query:           query,
		Plan:            plan,
		Status:          ProgressRunning,
		StartedAt:       start,
	}
	o.recordHistory(investigationID, record)

	for name := range requiredAgentSet(plan.RequiredAgents) {
		if _, err := o.registry.Lookup(name); err != nil {
			o.incrementFailed()
			record.Status = ProgressFailed
			return nil, sentinelerrors.New("orchestrator.Investigate", "agent", sentinelerrors.ErrAgentUnavailable).WithID(name)
		}
	}

	groups := GroupSteps(plan.Steps)

	var allResults []executor.Result
	for i, group := range groups {
		tasks := make([]executor.Task, len(group))
		for j, step := range group {
			tasks[j] = executor.Task{
				ID:       fmt.Sprintf("%s-g%d-%d", investigationID, i, j),
				AgentRef: step.AgentName,
				Message: agent.Message{
					Sender:    "orchestrator",
					Recipient: step.AgentName,
					Action:    step.Action,
					Payload:   step.Parameters,
					ContextRef: investigationID,
				},
			}
		}
		results := o.exec.ExecuteParallel(ctx, tasks, executor.BestEffort)
		for _, r := range results {
			if !r.Success {
				o.logger.Warn("step failed", map[string]interface{}{
					"investigation_id": investigationID, "agent": r.AgentName, "error": r.Error,
				})
			}
		}
		allResults = append(allResults, results...)

		record.Progress = float64(i+1) / float64(len(groups))
	}

	findings, sources := MergeFindingsAndSources(allResults)
	confidence := Confidence(findings, sources)
	explanation := buildExplanation(query, plan, findings, confidence)
	reflection := Reflect(findings, sources, confidence, explanation)

	result := &Result{
		InvestigationID: investigationID,
		Query:           query,
		Findings:        findings,
		Sources:         sources,
		ConfidenceScore: confidence,
		Explanation:     explanation,
		Metadata: map[string]interface{}{
			"plan":          plan,
			"agents_used":   plan.RequiredAgents,
			"steps_executed": len(plan.Steps),
			"reflection":     reflection,
		},
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Timestamp:        time.Now().UTC(),
	}

	record.Result = result
	record.Status = ProgressCompleted
	record.Progress = 1.0
	record.CompletedAt = time.Now()
	o.recordHistory(investigationID, record)

	o.cacheResult(query, result)
	o.updateLatency(time.Since(start))

	return result, nil
}

// MonitorProgress returns the live status of investigationID, or
// {status: "not_found"} when unknown.
func (o *Orchestrator) MonitorProgress(investigationID string) Progress {
	o.historyMu.RLock()
	defer o.historyMu.RUnlock()

	record, ok := o.history[investigationID]
	if !ok {
		return Progress{Status: ProgressNotFound}
	}
	return Progress{Status: record.Status, Plan: record.Plan, Progress: record.Progress}
}

// AdaptStrategy evaluates the adaptation table against the current
// aggregated results for investigationID and merges any resulting steps
// into the live plan.
func (o *Orchestrator) AdaptStrategy(investigationID string, in AdaptInput) (AdaptResult, error) {
	o.historyMu.Lock()
	defer o.historyMu.Unlock()

	record, ok := o.history[investigationID]
	if !ok {
		return AdaptResult{}, sentinelerrors.New("orchestrator.AdaptStrategy", "investigation", sentinelerrors.ErrTaskNotFound).WithID(investigationID)
	}

	result := Adapt(in, record.Plan.QualityCriteria)
	MergePlan(record.Plan, result.NewSteps)
	return result, nil
}

// Metrics returns a snapshot of cumulative orchestrator activity.
func (o *Orchestrator) Metrics() Metrics {
	o.metricsMu.Lock()
	defer o.metricsMu.Unlock()
	return o.metrics
}

// ExecutorStats returns a snapshot of the underlying executor's cumulative
// task statistics, for callers that surface both halves of runtime health
// (investigations and the task-level work backing them) in one place.
func (o *Orchestrator) ExecutorStats() map[string]interface{} {
	return o.exec.Stats().Snapshot()
}

func (o *Orchestrator) incrementTotal() {
	o.metricsMu.Lock()
	defer o.metricsMu.Unlock()
	o.metrics.TotalInvestigations++
}

func (o *Orchestrator) incrementFailed() {
	o.metricsMu.Lock()
	defer o.metricsMu.Unlock()
	o.metrics.FailedInvestigations++
}

func (o *Orchestrator) updateLatency(d time.Duration) {
	o.metricsMu.Lock()
	defer o.metricsMu.Unlock()
	if o.metrics.AverageLatency == 0 {
		o.metrics.AverageLatency = d
	} else {
		o.metrics.AverageLatency = (o.metrics.AverageLatency + d) / 2
	}
}

func (o *Orchestrator) recordHistory(investigationID string, record *ExecutionRecord) {
	o.historyMu.Lock()
	defer o.historyMu.Unlock()
	o.history[investigationID] = record
	if len(o.history) > maxHistorySize {
		o.evictOldestLocked()
	}
}

func (o *Orchestrator) evictOldestLocked() {
	var oldestID string
	var oldestTime time.Time
	for id, r := range o.history {
		if oldestID == "" || r.StartedAt.Before(oldestTime) {
			oldestID = id
			oldestTime = r.StartedAt
		}
	}
	if oldestID != "" {
		delete(o.history, oldestID)
	}
}

func (o *Orchestrator) checkCache(query string) (*Result, bool) {
	if o.cache == nil {
		return nil, false
	}
	if v, ok := o.cache.Get(cacheKey(query)); ok {
		if result, ok := v.(*Result); ok {
			return result, true
		}
	}
	return nil, false
}

func (o *Orchestrator) cacheResult(query string, result *Result) {
	if o.cache == nil {
		return
	}
	o.cache.Set(cacheKey(query), result, o.cacheTTL)
}

func cacheKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func requiredAgentSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func buildExplanation(query string, plan *Plan, findings []map[string]interface{}, confidence float64) string {
	return fmt.Sprintf(
		"Investigated %q using %d specialist(s) across %d step(s). %d finding(s) collected with an aggregate confidence of %.2f.",
		query, len(plan.RequiredAgents), len(plan.Steps), len(findings), confidence,
	)
}
