package specialists

import (
	"context"
	"time"

	"github.com/sentinela-labs/sentinela/agent"
)

// PatternAnalyst looks across the anomalies a prior step found for
// repetition — the same organization showing up across multiple flagged
// contracts, which is a stronger signal than any one contract in
// isolation. Only the "organization" field is counted; suppliers and
// modalities are not grouped.
type PatternAnalyst struct {
	baseAgent
}

// NewPatternAnalyst builds the pattern_analyst specialist.
func NewPatternAnalyst() *PatternAnalyst {
	return &PatternAnalyst{baseAgent{
		name:        "pattern_analyst",
		description: "Looks for recurring organizations across a set of flagged contracts.",
		capabilities: []agent.Capability{
			{
				Name:        "analyze_patterns",
				Description: "Given prior findings, identify organizations that appear more than once.",
				InputKeys:   []string{"findings"},
				OutputKeys:  []string{"patterns"},
			},
		},
	}}
}

func (a *PatternAnalyst) Process(ctx context.Context, msg agent.Message) (*agent.Response, error) {
	started := time.Now()

	findings, _ := msg.Payload["findings"].([]interface{})
	counts := map[string]int{}
	for _, f := range findings {
		entry, ok := f.(map[string]interface{})
		if !ok {
			continue
		}
		if org := payloadString(entry, "organization"); org != "" {
			counts[org]++
		}
	}

	var patterns []interface{}
	for org, count := range counts {
		if count > 1 {
			patterns = append(patterns, map[string]interface{}{
				"organization": org,
				"occurrences":  count,
			})
		}
	}
	if patterns == nil {
		patterns = []interface{}{}
	}

	return completed(a.name, started, map[string]interface{}{"patterns": patterns}), nil
}
