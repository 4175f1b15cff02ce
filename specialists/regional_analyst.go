package specialists

import (
	"context"
	"time"

	"github.com/sentinela-labs/sentinela/agent"
)

// RegionalAnalyst groups contract values by region/state code, so a
// reporting step can call out geographic concentration.
type RegionalAnalyst struct {
	baseAgent
}

// NewRegionalAnalyst builds the regional_analyst specialist.
func NewRegionalAnalyst() *RegionalAnalyst {
	return &RegionalAnalyst{baseAgent{
		name:        "regional_analyst",
		description: "Groups contract spend by region or state code.",
		capabilities: []agent.Capability{
			{
				Name:        "analyze_region",
				Description: "Given a set of contracts, bucket total spend by region.",
				InputKeys:   []string{"contracts"},
				OutputKeys:  []string{"by_region"},
			},
		},
	}}
}

func (a *RegionalAnalyst) Process(ctx context.Context, msg agent.Message) (*agent.Response, error) {
	started := time.Now()

	contracts, _ := msg.Payload["contracts"].([]interface{})
	byRegion := map[string]float64{}
	for _, c := range contracts {
		entry, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		region := payloadString(entry, "regiao")
		if region == "" {
			region = "unknown"
		}
		v, _ := payloadFloat(entry, "valorInicial", "valorGlobal")
		byRegion[region] += v
	}

	result := make(map[string]interface{}, len(byRegion))
	for region, total := range byRegion {
		result[region] = total
	}

	return completed(a.name, started, map[string]interface{}{"by_region": result}), nil
}
