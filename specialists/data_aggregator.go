package specialists

import (
	"context"
	"time"

	"github.com/sentinela-labs/sentinela/agent"
)

// DataAggregator merges whatever prior steps' findings it is handed into
// one combined result set, deduplicating by an optional "id" field. It
// holds no domain logic of its own — its entire job is consolidation
// ahead of reporting.
type DataAggregator struct {
	baseAgent
}

// NewDataAggregator builds the data_aggregator specialist.
func NewDataAggregator() *DataAggregator {
	return &DataAggregator{baseAgent{
		name:        "data_aggregator",
		description: "Merges findings from prior investigation steps into one consolidated set.",
		capabilities: []agent.Capability{
			{
				Name:        "aggregate_findings",
				Description: "Merge prior steps' findings, deduplicating by id where present.",
				InputKeys:   []string{"findings"},
				OutputKeys:  []string{"aggregated"},
			},
		},
	}}
}

func (a *DataAggregator) Process(ctx context.Context, msg agent.Message) (*agent.Response, error) {
	started := time.Now()

	findings, _ := msg.Payload["findings"].([]interface{})
	seen := map[string]bool{}
	var aggregated []interface{}
	for _, f := range findings {
		entry, ok := f.(map[string]interface{})
		if !ok {
			aggregated = append(aggregated, f)
			continue
		}
		id := payloadString(entry, "id")
		if id != "" {
			if seen[id] {
				continue
			}
			seen[id] = true
		}
		aggregated = append(aggregated, entry)
	}
	if aggregated == nil {
		aggregated = []interface{}{}
	}

	return completed(a.name, started, map[string]interface{}{"aggregated": aggregated}), nil
}
