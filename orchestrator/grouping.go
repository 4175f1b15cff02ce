package orchestrator

// GroupSteps converts plan steps into ordered groups for parallel
// execution: iterate steps in order; a step joins the current group iff
// none of its DependsOn names have appeared already in that group and
// its own agent has not appeared already in that group; otherwise a new
// group starts. Yields a topologically valid sequence of groups where
// within-group steps are mutually independent.
func GroupSteps(steps []Step) [][]Step {
	var groups [][]Step
	var current []Step
	currentAgents := make(map[string]bool)

	flush := func() {
		if len(current) > 0 {
			groups = append(groups, current)
			current = nil
			currentAgents = make(map[string]bool)
		}
	}

	for _, step := range steps {
		conflict := currentAgents[step.AgentName]
		if !conflict {
			for _, dep := range step.DependsOn {
				if currentAgents[dep] {
					conflict = true
					break
				}
			}
		}

		if conflict {
			flush()
		}

		current = append(current, step)
		currentAgents[step.AgentName] = true
	}
	flush()

	return groups
}
