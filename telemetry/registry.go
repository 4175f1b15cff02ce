// Package telemetry provides span helpers around orchestrator, executor,
// and monitor operations, plus a concrete MetricsRegistry backend wired into
// logging's weakly-coupled bridge.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// Span mirrors the subset of an OpenTelemetry span subsystems use, kept
// narrow so callers never import the otel SDK directly.
type Span interface {
	End()
	SetAttribute(key string, value interface{})
	RecordError(err error)
}

// Telemetry starts spans and records metrics for a named component.
type Telemetry interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
	RecordMetric(name string, value float64, labels map[string]string)
}

// NoOpTelemetry discards everything — the default when Config.Telemetry.
// Enabled is false.
type NoOpTelemetry struct{}

func (NoOpTelemetry) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, noOpSpan{}
}
func (NoOpTelemetry) RecordMetric(string, float64, map[string]string) {}

type noOpSpan struct{}

func (noOpSpan) End()                               {}
func (noOpSpan) SetAttribute(string, interface{})   {}
func (noOpSpan) RecordError(error)                  {}

type otelSpan struct {
	span trace.Span
}

func (s otelSpan) End() { s.span.End() }

func (s otelSpan) SetAttribute(key string, value interface{}) {
	s.span.SetAttributes(attributeFor(key, value))
}

func (s otelSpan) RecordError(err error) {
	if err != nil {
		s.span.RecordError(err)
	}
}
