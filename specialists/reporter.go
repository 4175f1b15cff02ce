package specialists

import (
	"context"
	"fmt"
	"time"

	"github.com/sentinela-labs/sentinela/agent"
)

// Reporter renders a short human-readable summary from the
// investigation's accumulated findings and sources. Report rendering
// detail (templates, PDF/HTML output) is out of this engine's scope;
// this produces a plain-text summary returned as the step's "summary"
// result. The orchestrator builds its explanation separately and does not
// use this summary.
type Reporter struct {
	baseAgent
}

// NewReporter builds the reporter specialist.
func NewReporter() *Reporter {
	return &Reporter{baseAgent{
		name:        "reporter",
		description: "Renders a short textual summary of an investigation's findings.",
		capabilities: []agent.Capability{
			{
				Name:        "generate_report",
				Description: "Given findings and sources, render a one-paragraph summary.",
				InputKeys:   []string{"findings", "sources"},
				OutputKeys:  []string{"summary"},
			},
		},
	}}
}

func (a *Reporter) Process(ctx context.Context, msg agent.Message) (*agent.Response, error) {
	started := time.Now()

	findings, _ := msg.Payload["findings"].([]interface{})
	sources, _ := msg.Payload["sources"].([]interface{})

	summary := fmt.Sprintf("Analysis drew on %d source(s) and produced %d finding(s).", len(sources), len(findings))
	if len(findings) == 0 {
		summary = "Analysis completed with no notable findings."
	}

	return completed(a.name, started, map[string]interface{}{"summary": summary}), nil
}
