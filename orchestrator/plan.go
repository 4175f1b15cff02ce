// Package orchestrator implements the Master Orchestrator: turning a free
// text query into an InvestigationPlan, grouping its steps into
// dependency-safe parallel batches, driving the executor, reflecting on
// the aggregated result, and adapting the plan when reflection finds it
// wanting.
package orchestrator

// Step is one unit of work in an InvestigationPlan.
type Step struct {
	AgentName  string                 `json:"agent_name"`
	Action     string                 `json:"action"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	DependsOn  []string               `json:"depends_on,omitempty"`
}

// QualityCriteria gates whether an InvestigationResult is considered
// sufficient, or whether adaptation should run.
type QualityCriteria struct {
	MinConfidence float64 `json:"min_confidence"`
	MinFindings   int     `json:"min_findings"`
	MinSources    int     `json:"min_sources"`
}

// Plan is the orchestrator's execution plan for one investigation.
// Invariant: the dependency graph induced by Steps[i].DependsOn is a DAG;
// every name in DependsOn appears as an agent in an earlier step or is
// absent; RequiredAgents is the distinct set of agents across Steps.
type Plan struct {
	Objective             string          `json:"objective"`
	Steps                 []Step          `json:"steps"`
	RequiredAgents        []string        `json:"required_agents"`
	EstimatedTimeSeconds  int             `json:"estimated_time_seconds"`
	QualityCriteria       QualityCriteria `json:"quality_criteria"`
	FallbackStrategies    []string        `json:"fallback_strategies,omitempty"`
}

func distinctAgents(steps []Step) []string {
	seen := make(map[string]bool)
	var agents []string
	for _, s := range steps {
		if !seen[s.AgentName] {
			seen[s.AgentName] = true
			agents = append(agents, s.AgentName)
		}
	}
	return agents
}

func estimatedTimeSeconds(stepCount int) int {
	return 30 + 15*stepCount
}

// addStep appends a step and refreshes RequiredAgents without duplicates.
func (p *Plan) addStep(step Step) {
	p.Steps = append(p.Steps, step)
	p.RequiredAgents = distinctAgents(p.Steps)
	p.EstimatedTimeSeconds = estimatedTimeSeconds(len(p.Steps))
}

// allPriorAgents returns the distinct agent names of every step in steps,
// used when a newly appended step must depend on everything so far.
func allPriorAgents(steps []Step) []string {
	return distinctAgents(steps)
}
