package telemetry

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrometheusRegistry_CounterIsExposedOnHandler(t *testing.T) {
	r := NewPrometheusRegistry()
	r.Counter("investigations.completed", "status", "ok")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), "investigations_completed")
}

func TestPrometheusRegistry_NameIsSanitizedAcrossCallsToSameMetric(t *testing.T) {
	r := NewPrometheusRegistry()
	r.Counter("queue.tasks-enqueued")
	r.Counter("queue.tasks-enqueued")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), "queue_tasks_enqueued 2")
}

func TestPrometheusRegistry_GaugeSetsLatestValue(t *testing.T) {
	r := NewPrometheusRegistry()
	r.Gauge("executor.active_tasks", 3)
	r.Gauge("executor.active_tasks", 7)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), "executor_active_tasks 7")
}

func TestPrometheusRegistry_HistogramRecordsObservationCount(t *testing.T) {
	r := NewPrometheusRegistry()
	r.Histogram("orchestrator.latency_seconds", 0.42)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), "orchestrator_latency_seconds_count 1")
}

func TestPrometheusRegistry_GetBaggageAlwaysNil(t *testing.T) {
	r := NewPrometheusRegistry()
	assert.Nil(t, r.GetBaggage(nil))
}

func TestPrometheusRegistry_LabeledMetricsTrackDistinctSeries(t *testing.T) {
	r := NewPrometheusRegistry()
	r.Counter("alerts.sent", "channel", "webhook")
	r.Counter("alerts.sent", "channel", "email")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, `channel="webhook"`)
	assert.Contains(t, body, `channel="email"`)
}
