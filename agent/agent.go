// Package agent defines the capability contract every investigative
// specialist satisfies, and the Registry/Pool that resolve agents by name
// for the orchestrator and executor.
package agent

import "context"

// Message is the input handed to Agent.Process.
type Message struct {
	Sender    string                 `json:"sender"`
	Recipient string                 `json:"recipient"`
	Action    string                 `json:"action"`
	Payload   map[string]interface{} `json:"payload"`
	ContextRef string                `json:"context_ref"`
}

// Status enumerates the outcome of a Process call.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
	StatusWarning   Status = "warning"
)

// Response is the output of Agent.Process.
type Response struct {
	AgentName        string                 `json:"agent_name"`
	Status           Status                 `json:"status"`
	Result           map[string]interface{} `json:"result,omitempty"`
	Error            string                 `json:"error,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	ProcessingTimeMs int64                  `json:"processing_time_ms"`
}

// Reflection is the optional completeness/quality self-assessment some
// agents can produce about their own result.
type Reflection struct {
	Complete    bool     `json:"complete"`
	QualityHint float64  `json:"quality_hint"`
	Issues      []string `json:"issues,omitempty"`
}

// Capability describes one action an agent exposes: its name, an input
// schema hint, the shape of its successful output, and the error codes it
// can surface — a three-tier description (name/input/output) used by the
// orchestrator's plan generator to validate that a planned step's action
// is one the named agent actually exposes.
type Capability struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	InputKeys   []string `json:"input_keys"`
	OutputKeys  []string `json:"output_keys"`
	Errors      []string `json:"errors,omitempty"`
}

// Agent is the uniform capability contract: initialize, process, shutdown.
// Polymorphism is by this named contract, not by concrete type — the
// orchestrator and executor never assume anything beyond it.
type Agent interface {
	Name() string
	Description() string
	Capabilities() []Capability

	Initialize(ctx context.Context) error
	Process(ctx context.Context, msg Message) (*Response, error)
	Shutdown(ctx context.Context) error
}

// ReflectiveAgent is an Agent that can additionally assess the
// completeness and quality of its own result.
type ReflectiveAgent interface {
	Agent
	Reflect(ctx context.Context, result *Response, msg Message) (*Reflection, error)
}

// AsReflective reports whether a is also a ReflectiveAgent, returning the
// narrowed interface when it is.
func AsReflective(a Agent) (ReflectiveAgent, bool) {
	r, ok := a.(ReflectiveAgent)
	return r, ok
}
