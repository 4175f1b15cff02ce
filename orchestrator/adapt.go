package orchestrator

// AdaptInput summarizes the current aggregated results the adaptation
// table is evaluated against.
type AdaptInput struct {
	FindingsCount           int
	Confidence              float64
	SourcesCount            int
	AnomalyRate             float64
	GeographicConcentration float64
}

// AdaptResult is the outcome of one adaptation pass: human-readable
// change notes plus the new steps to union-merge into the live plan.
type AdaptResult struct {
	Changes  []string
	NewSteps []Step
}

// Adapt evaluates the adaptation table against in and the plan's quality
// criteria, returning new steps to inject and human-readable notes.
// Appended steps are union-merged into the caller's live plan by name;
// RequiredAgents should be refreshed from the merged step list.
func Adapt(in AdaptInput, criteria QualityCriteria) AdaptResult {
	var result AdaptResult

	if in.FindingsCount < criteria.MinFindings {
		result.Changes = append(result.Changes, "loosened detection threshold: too few findings")
		result.NewSteps = append(result.NewSteps, Step{
			AgentName: "anomaly_detector",
			Action:    "detect_anomalies",
			Parameters: map[string]interface{}{
				"sensitivity": "high",
				"threshold":   "2.0σ",
			},
		})
	}

	if in.Confidence < criteria.MinConfidence {
		result.Changes = append(result.Changes, "added pattern analysis: confidence below threshold")
		result.NewSteps = append(result.NewSteps, Step{
			AgentName: "pattern_analyst",
			Action:    "analyze_patterns",
			DependsOn: []string{"anomaly_detector"},
		})
	}

	if in.SourcesCount < criteria.MinSources {
		result.Changes = append(result.Changes, "diversified sources: regional analysis added")
		result.NewSteps = append(result.NewSteps, Step{
			AgentName: "regional_analyst",
			Action:    "analyze_region",
		})
	}

	if in.AnomalyRate > 0.3 {
		result.Changes = append(result.Changes, "deepened analysis: high anomaly rate")
		result.NewSteps = append(result.NewSteps, Step{
			AgentName: "policy_analyst",
			Action:    "analyze_policy",
		})
	}

	if in.GeographicConcentration > 0.7 {
		result.Changes = append(result.Changes, "added regional inequality analysis: high geographic concentration")
		result.NewSteps = append(result.NewSteps, Step{
			AgentName: "regional_analyst",
			Action:    "analyze_inequality",
		})
	}

	return result
}

// MergePlan union-merges new steps into the live plan by agent name —
// an agent name already present in plan.Steps is not duplicated — and
// refreshes RequiredAgents.
func MergePlan(plan *Plan, newSteps []Step) {
	existing := make(map[string]bool, len(plan.Steps))
	for _, s := range plan.Steps {
		existing[s.AgentName] = true
	}
	for _, s := range newSteps {
		if existing[s.AgentName] {
			continue
		}
		plan.addStep(s)
		existing[s.AgentName] = true
	}
}
