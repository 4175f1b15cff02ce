package specialists

import (
	"context"
	"time"

	"github.com/sentinela-labs/sentinela/agent"
)

// PolicyAnalyst reports on a program's spend distribution — a coarse
// effectiveness proxy, since real outcome data lives outside this
// engine's scope.
type PolicyAnalyst struct {
	baseAgent
}

// NewPolicyAnalyst builds the policy_analyst specialist.
func NewPolicyAnalyst() *PolicyAnalyst {
	return &PolicyAnalyst{baseAgent{
		name:        "policy_analyst",
		description: "Summarizes spend distribution for a program or policy area.",
		capabilities: []agent.Capability{
			{
				Name:        "analyze_policy",
				Description: "Given a set of contracts, summarize total and average spend.",
				InputKeys:   []string{"contracts"},
				OutputKeys:  []string{"total_value", "contract_count", "average_value"},
			},
		},
	}}
}

func (a *PolicyAnalyst) Process(ctx context.Context, msg agent.Message) (*agent.Response, error) {
	started := time.Now()

	contracts, _ := msg.Payload["contracts"].([]interface{})
	var total float64
	for _, c := range contracts {
		entry, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		if v, ok := payloadFloat(entry, "valorInicial", "valorGlobal"); ok {
			total += v
		}
	}

	result := map[string]interface{}{
		"total_value":    total,
		"contract_count": len(contracts),
	}
	if len(contracts) > 0 {
		result["average_value"] = total / float64(len(contracts))
	}

	return completed(a.name, started, result), nil
}
