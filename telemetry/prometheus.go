package telemetry

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sentinela-labs/sentinela/logging"
)

// PrometheusRegistry implements logging.MetricsRegistry on top of
// client_golang, the one concrete backend behind the bridge interface
// every other package depends on.
type PrometheusRegistry struct {
	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
	registerer prometheus.Registerer
}

// NewPrometheusRegistry builds a registry against a dedicated prometheus
// registry (not the global default, so tests can construct isolated
// instances).
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		registerer: prometheus.NewRegistry(),
	}
}

// Handler exposes the underlying registry on an HTTP /metrics endpoint.
func (r *PrometheusRegistry) Handler() http.Handler {
	reg, ok := r.registerer.(*prometheus.Registry)
	if !ok {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func labelNames(pairs []string) []string {
	names := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		names = append(names, pairs[i])
	}
	return names
}

func labelValues(pairs []string) prometheus.Labels {
	values := make(prometheus.Labels, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		values[pairs[i]] = pairs[i+1]
	}
	return values
}

func sanitizeMetricName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

func (r *PrometheusRegistry) Counter(name string, labels ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	metricName := sanitizeMetricName(name)
	vec, ok := r.counters[metricName]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricName,
			Help: "counter for " + name,
		}, labelNames(labels))
		r.registerer.MustRegister(vec)
		r.counters[metricName] = vec
	}
	vec.With(labelValues(labels)).Inc()
}

func (r *PrometheusRegistry) Gauge(name string, value float64, labels ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	metricName := sanitizeMetricName(name)
	vec, ok := r.gauges[metricName]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metricName,
			Help: "gauge for " + name,
		}, labelNames(labels))
		r.registerer.MustRegister(vec)
		r.gauges[metricName] = vec
	}
	vec.With(labelValues(labels)).Set(value)
}

func (r *PrometheusRegistry) Histogram(name string, value float64, labels ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	metricName := sanitizeMetricName(name)
	vec, ok := r.histograms[metricName]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: metricName,
			Help: "histogram for " + name,
		}, labelNames(labels))
		r.registerer.MustRegister(vec)
		r.histograms[metricName] = vec
	}
	vec.With(labelValues(labels)).Observe(value)
}

// GetBaggage satisfies logging.MetricsRegistry; this engine does not carry
// cross-process baggage, so it always returns nil.
func (r *PrometheusRegistry) GetBaggage(ctx context.Context) map[string]string {
	return nil
}

// Init wires a PrometheusRegistry into the logging package's global bridge
// so every logger constructed before or after this call emits counters.
func Init(registry *PrometheusRegistry) {
	logging.SetMetricsRegistry(registry)
}
