package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	counters []string
	baggage  map[string]string
}

func (f *fakeRegistry) Counter(name string, labels ...string)          { f.counters = append(f.counters, name) }
func (f *fakeRegistry) Gauge(string, float64, ...string)               {}
func (f *fakeRegistry) Histogram(string, float64, ...string)           {}
func (f *fakeRegistry) GetBaggage(ctx context.Context) map[string]string { return f.baggage }

func TestSetMetricsRegistry_EnablesMetricsOnLoggersCreatedBeforeAndAfter(t *testing.T) {
	t.Cleanup(func() { SetMetricsRegistry(nil) })

	before := NewProductionLogger(FormatJSON, LevelDebug)
	reg := &fakeRegistry{}
	SetMetricsRegistry(reg)
	after := NewProductionLogger(FormatJSON, LevelDebug)

	capture(t, before, func() { before.Info("x", nil) })
	capture(t, after, func() { after.Info("y", nil) })

	assert.Contains(t, reg.counters, "log.lines")
	assert.Len(t, reg.counters, 2)
}

func TestGetGlobalMetricsRegistry_NilBeforeAnyRegistration(t *testing.T) {
	t.Cleanup(func() { SetMetricsRegistry(nil) })
	SetMetricsRegistry(nil)
	assert.Nil(t, GetGlobalMetricsRegistry())
}

func TestWithBaggage_MergesRegistryBaggageWithoutOverridingExplicitFields(t *testing.T) {
	t.Cleanup(func() { SetMetricsRegistry(nil) })
	SetMetricsRegistry(&fakeRegistry{baggage: map[string]string{"trace_id": "abc", "investigation_id": "should-not-win"}})

	merged := withBaggage(context.Background(), map[string]interface{}{"investigation_id": "inv-1"})
	require.Equal(t, "inv-1", merged["investigation_id"])
	assert.Equal(t, "abc", merged["trace_id"])
}

func TestWithBaggage_NoRegistryReturnsFieldsUnchanged(t *testing.T) {
	t.Cleanup(func() { SetMetricsRegistry(nil) })
	SetMetricsRegistry(nil)

	fields := map[string]interface{}{"a": 1}
	assert.Equal(t, fields, withBaggage(context.Background(), fields))
}
