package executor

// Aggregate summarizes a batch of Results: success/failure counts, total
// execution time, per-agent grouping, and a concatenated list of the
// named key from each successful result's payload.
type Aggregate struct {
	Total              int                `json:"total"`
	Successful         int                `json:"successful"`
	Failed             int                `json:"failed"`
	TotalExecutionTime float64            `json:"total_execution_time"`
	ResultsByAgent     map[string][]Result `json:"results_by_agent"`
	Values             []interface{}      `json:"values"`
}

// AggregateResults implements aggregate_results(results, key): default
// key is "findings" when empty.
func AggregateResults(results []Result, key string) Aggregate {
	if key == "" {
		key = "findings"
	}

	agg := Aggregate{
		ResultsByAgent: make(map[string][]Result),
	}

	for _, r := range results {
		agg.Total++
		agg.TotalExecutionTime += r.ExecutionTime.Seconds()
		agg.ResultsByAgent[r.AgentName] = append(agg.ResultsByAgent[r.AgentName], r)

		if !r.Success {
			agg.Failed++
			continue
		}
		agg.Successful++

		if r.Result == nil {
			continue
		}
		v, ok := r.Result[key]
		if !ok {
			continue
		}
		switch typed := v.(type) {
		case []interface{}:
			agg.Values = append(agg.Values, typed...)
		default:
			agg.Values = append(agg.Values, typed)
		}
	}

	return agg
}
