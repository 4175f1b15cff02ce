// Package specialists provides the concrete Agent implementations the
// orchestrator's rule table names: anomaly_detector, pattern_analyst,
// policy_analyst, regional_analyst, data_aggregator, reporter. Each is a
// deterministic, heuristic analyzer over whatever payload its action
// receives — no LLM provider is wired in here, matching this project's
// excluded LLM-adapter scope; a future specialist could swap its
// internals for a real model call without touching the Agent contract.
package specialists

import (
	"context"
	"time"

	"github.com/sentinela-labs/sentinela/agent"
)

// baseAgent factors the bookkeeping every specialist shares: name,
// description, capability list, and a no-op lifecycle (nothing here
// holds a connection worth draining).
type baseAgent struct {
	name         string
	description  string
	capabilities []agent.Capability
}

func (b *baseAgent) Name() string                      { return b.name }
func (b *baseAgent) Description() string                { return b.description }
func (b *baseAgent) Capabilities() []agent.Capability    { return b.capabilities }
func (b *baseAgent) Initialize(ctx context.Context) error { return nil }
func (b *baseAgent) Shutdown(ctx context.Context) error   { return nil }

func completed(name string, started time.Time, result map[string]interface{}) *agent.Response {
	return &agent.Response{
		AgentName:        name,
		Status:           agent.StatusCompleted,
		Result:           result,
		ProcessingTimeMs: time.Since(started).Milliseconds(),
	}
}

func errored(name string, started time.Time, err error) *agent.Response {
	return &agent.Response{
		AgentName:        name,
		Status:           agent.StatusError,
		Error:            err.Error(),
		ProcessingTimeMs: time.Since(started).Milliseconds(),
	}
}

func payloadMap(msg agent.Message, key string) map[string]interface{} {
	if v, ok := msg.Payload[key]; ok {
		if m, ok := v.(map[string]interface{}); ok {
			return m
		}
	}
	return nil
}

func payloadFloat(m map[string]interface{}, keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		}
	}
	return 0, false
}

func payloadString(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// RegisterAll builds every specialist and registers it onto reg, and
// additionally binds a matching factory onto pool, which the pool uses to
// build instances on Acquire. With pooling disabled the executor resolves
// agents through reg and does not use these factories.
func RegisterAll(reg *agent.Registry, pool *agent.Pool) {
	factories := map[string]agent.Factory{
		"anomaly_detector": func() (agent.Agent, error) { return NewAnomalyDetector(), nil },
		"pattern_analyst":  func() (agent.Agent, error) { return NewPatternAnalyst(), nil },
		"policy_analyst":   func() (agent.Agent, error) { return NewPolicyAnalyst(), nil },
		"regional_analyst": func() (agent.Agent, error) { return NewRegionalAnalyst(), nil },
		"data_aggregator":  func() (agent.Agent, error) { return NewDataAggregator(), nil },
		"reporter":         func() (agent.Agent, error) { return NewReporter(), nil },
	}
	for name, factory := range factories {
		a, _ := factory()
		reg.Register(a)
		pool.RegisterFactory(name, factory)
	}
}
