// Package logging provides the structured logging interfaces used across
// the engine. Every subsystem accepts a Logger at construction time; none
// reach for a package-level global.
package logging

import "context"

// Logger is the minimal structured logging interface subsystems depend on.
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Debug(msg string, fields map[string]interface{})

	InfoWithContext(ctx context.Context, msg string, fields map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, fields map[string]interface{})
	DebugWithContext(ctx context.Context, msg string, fields map[string]interface{})
}

// ComponentAwareLogger extends Logger so a package can bind its own
// component name while sharing one base configuration. Component naming
// follows "<package>/<subsystem>", e.g. "orchestrator/plan",
// "queue/worker", "monitor/scheduler".
type ComponentAwareLogger interface {
	Logger
	WithComponent(component string) Logger
}

// NoOpLogger discards everything. Used in tests and anywhere a logger is
// required but not wanted.
type NoOpLogger struct{}

func (n *NoOpLogger) Info(string, map[string]interface{})  {}
func (n *NoOpLogger) Error(string, map[string]interface{}) {}
func (n *NoOpLogger) Warn(string, map[string]interface{})  {}
func (n *NoOpLogger) Debug(string, map[string]interface{}) {}

func (n *NoOpLogger) InfoWithContext(context.Context, string, map[string]interface{})  {}
func (n *NoOpLogger) ErrorWithContext(context.Context, string, map[string]interface{}) {}
func (n *NoOpLogger) WarnWithContext(context.Context, string, map[string]interface{})  {}
func (n *NoOpLogger) DebugWithContext(context.Context, string, map[string]interface{}) {}

func (n *NoOpLogger) WithComponent(string) Logger { return n }
