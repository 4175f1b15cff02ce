package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OtelTelemetry starts real spans against a configured tracer. Metric
// recording is delegated to the MetricsRegistry bridge so subsystems that
// only hold a Telemetry reference still contribute to the same Prometheus
// backend as logging's counters.
type OtelTelemetry struct {
	tracer   trace.Tracer
	registry *PrometheusRegistry
}

// NewOtelTelemetry builds a Telemetry backed by the global otel tracer
// provider for serviceName, recording metrics through registry.
func NewOtelTelemetry(serviceName string, registry *PrometheusRegistry) *OtelTelemetry {
	return &OtelTelemetry{
		tracer:   otel.Tracer(serviceName),
		registry: registry,
	}
}

func (t *OtelTelemetry) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, otelSpan{span: span}
}

func (t *OtelTelemetry) RecordMetric(name string, value float64, labels map[string]string) {
	if t.registry == nil {
		return
	}
	pairs := make([]string, 0, len(labels)*2)
	for k, v := range labels {
		pairs = append(pairs, k, v)
	}
	t.registry.Histogram(name, value, pairs...)
}

func attributeFor(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
