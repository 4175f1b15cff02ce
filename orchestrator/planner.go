package orchestrator

// Planner generates an InvestigationPlan from a free-text query.
type Planner struct {
	rules *RuleEngine
}

// NewPlanner builds a Planner evaluating DefaultRules, or a custom rule
// table when one is supplied.
func NewPlanner(rules []Rule) (*Planner, error) {
	if rules == nil {
		rules = DefaultRules
	}
	engine, err := NewRuleEngine(rules)
	if err != nil {
		return nil, err
	}
	return &Planner{rules: engine}, nil
}

// GeneratePlan runs the rule table over query and appends the fixed
// structural steps (pattern analysis, aggregation, reporting) per the
// plan-generation contract.
func (p *Planner) GeneratePlan(query string) (*Plan, error) {
	matched, err := p.rules.Matches(query)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Objective: query}

	// The reporting rule only flags that reporting was requested; the
	// reporter step itself is always the final appended step below, so
	// it can depend on everything that precedes it.
	hasAnomaly := false
	hasRegional := false
	hasReportKeyword := false
	for _, rule := range matched {
		switch rule.AgentName {
		case "reporter":
			hasReportKeyword = true
			continue
		case "anomaly_detector":
			hasAnomaly = true
		case "regional_analyst":
			hasRegional = true
		}
		plan.addStep(Step{AgentName: rule.AgentName, Action: rule.Action})
	}

	if len(plan.Steps) == 0 && !hasReportKeyword {
		// Fallback when no keyword class matches: single
		// anomaly-detection step.
		plan.addStep(Step{AgentName: "anomaly_detector", Action: "detect_anomalies"})
		hasAnomaly = true
	}

	if hasAnomaly {
		plan.addStep(Step{
			AgentName: "pattern_analyst",
			Action:    "analyze_patterns",
			DependsOn: []string{"anomaly_detector"},
		})
	}

	if hasRegional || len(plan.Steps) >= 3 {
		plan.addStep(Step{
			AgentName: "data_aggregator",
			Action:    "aggregate_data",
			DependsOn: allPriorAgents(plan.Steps),
		})
	}

	if hasReportKeyword || len(plan.Steps) >= 2 {
		plan.addStep(Step{
			AgentName: "reporter",
			Action:    "generate_report",
			DependsOn: allPriorAgents(plan.Steps),
		})
	}

	plan.QualityCriteria = QualityCriteria{
		MinConfidence: qualityMinConfidence(hasAnomaly),
		MinFindings:   1,
		MinSources:    qualityMinSources(len(plan.RequiredAgents)),
	}

	return plan, nil
}

func qualityMinConfidence(hasAnomaly bool) float64 {
	if hasAnomaly {
		return 0.75
	}
	return 0.70
}

func qualityMinSources(agentCount int) int {
	if agentCount > 1 {
		return 2
	}
	return 1
}
