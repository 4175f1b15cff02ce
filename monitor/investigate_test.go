package monitor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sentinela-labs/sentinela/agent"
	"github.com/sentinela-labs/sentinela/logging"
	"github.com/sentinela-labs/sentinela/store"
	"github.com/sentinela-labs/sentinela/telemetry"
)

// mockStore implements store.AnomalyInvestigationStore for pipeline tests.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateInvestigation(ctx context.Context, args store.CreateInvestigationArgs) (*store.InvestigationRecord, error) {
	a := m.Called(ctx, args)
	r, _ := a.Get(0).(*store.InvestigationRecord)
	return r, a.Error(1)
}

func (m *mockStore) CreateAutoInvestigation(ctx context.Context, args store.CreateInvestigationArgs) (*store.InvestigationRecord, error) {
	a := m.Called(ctx, args)
	r, _ := a.Get(0).(*store.InvestigationRecord)
	return r, a.Error(1)
}

func (m *mockStore) UpdateInvestigationStatus(ctx context.Context, id string, status store.InvestigationStatus, progress float64, results []map[string]interface{}, anomaliesFound int) error {
	a := m.Called(ctx, id, status, progress, results, anomaliesFound)
	return a.Error(0)
}

func (m *mockStore) CreateAnomaly(ctx context.Context, args store.CreateAnomalyArgs) (*store.Anomaly, error) {
	a := m.Called(ctx, args)
	r, _ := a.Get(0).(*store.Anomaly)
	return r, a.Error(1)
}

func (m *mockStore) GetAnomalies(ctx context.Context, filter store.AnomalyFilter, limit, offset int) ([]store.Anomaly, error) {
	a := m.Called(ctx, filter, limit, offset)
	r, _ := a.Get(0).([]store.Anomaly)
	return r, a.Error(1)
}

func (m *mockStore) UpdateAnomalyStatus(ctx context.Context, id string, status store.AnomalyStatus, assignedTo string) (*store.Anomaly, error) {
	a := m.Called(ctx, id, status, assignedTo)
	r, _ := a.Get(0).(*store.Anomaly)
	return r, a.Error(1)
}

func (m *mockStore) CreateAlert(ctx context.Context, args store.CreateAlertArgs) (*store.Alert, error) {
	a := m.Called(ctx, args)
	r, _ := a.Get(0).(*store.Alert)
	return r, a.Error(1)
}

func (m *mockStore) UpdateAlertStatus(ctx context.Context, id string, status store.AlertStatus) error {
	a := m.Called(ctx, id, status)
	return a.Error(0)
}

// mockAgent implements agent.Agent for pipeline tests.
type mockAgent struct {
	mock.Mock
	name string
}

func (a *mockAgent) Name() string                 { return a.name }
func (a *mockAgent) Description() string          { return "mock anomaly detector" }
func (a *mockAgent) Capabilities() []agent.Capability { return nil }
func (a *mockAgent) Initialize(ctx context.Context) error { return nil }
func (a *mockAgent) Shutdown(ctx context.Context) error   { return nil }

func (a *mockAgent) Process(ctx context.Context, msg agent.Message) (*agent.Response, error) {
	args := a.Called(ctx, msg)
	r, _ := args.Get(0).(*agent.Response)
	return r, args.Error(1)
}

func newTestMonitor(t *testing.T, st store.AnomalyInvestigationStore, ag agent.Agent) *Monitor {
	reg := agent.NewRegistry(&logging.NoOpLogger{})
	reg.Register(ag)
	return New(DefaultConfig(), nil, reg, st, "anomaly_detector", &logging.NoOpLogger{}, telemetry.NoOpTelemetry{})
}

func TestInvestigateOne_PersistsEachReturnedAnomaly(t *testing.T) {
	st := &mockStore{}
	ag := &mockAgent{name: "anomaly_detector"}
	m := newTestMonitor(t, st, ag)

	investigation := &store.InvestigationRecord{ID: "inv-1", Kind: store.KindAutoInvestigation}
	st.On("CreateAutoInvestigation", mock.Anything, mock.Anything).Return(investigation, nil)

	ag.On("Process", mock.Anything, mock.Anything).Return(&agent.Response{
		AgentName: "anomaly_detector",
		Status:    agent.StatusCompleted,
		Result: map[string]interface{}{
			"anomalies": []interface{}{
				map[string]interface{}{
					"anomaly_type": "price_outlier", "score": 0.92, "title": "Overpriced contract",
					"description": "value far exceeds category median", "indicators": []interface{}{"z_score_high"},
				},
			},
		},
	}, nil)

	st.On("CreateAnomaly", mock.Anything, mock.MatchedBy(func(args store.CreateAnomalyArgs) bool {
		return args.AutoInvestigationID == "inv-1" && args.AnomalyType == "price_outlier"
	})).Return(&store.Anomaly{ID: "anom-1", Severity: store.SeverityHigh}, nil)

	st.On("UpdateInvestigationStatus", mock.Anything, "inv-1", store.InvestigationCompleted, 1.0, mock.Anything, 1).Return(nil)

	persisted, err := m.investigateOne(context.Background(), ScoredContract{
		Contract: contract(map[string]interface{}{"id": "c1"}),
		Score:    5,
		Reasons:  []string{"high_value", "single_bidder"},
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, persisted)
	st.AssertExpectations(t)
	ag.AssertExpectations(t)
}

func TestInvestigateOne_AgentErrorMarksInvestigationFailed(t *testing.T) {
	st := &mockStore{}
	ag := &mockAgent{name: "anomaly_detector"}
	m := newTestMonitor(t, st, ag)

	investigation := &store.InvestigationRecord{ID: "inv-2"}
	st.On("CreateAutoInvestigation", mock.Anything, mock.Anything).Return(investigation, nil)
	ag.On("Process", mock.Anything, mock.Anything).Return((*agent.Response)(nil), assert.AnError)
	st.On("UpdateInvestigationStatus", mock.Anything, "inv-2", store.InvestigationFailed, 0.0, mock.Anything, 0).Return(nil)

	persisted, err := m.investigateOne(context.Background(), ScoredContract{
		Contract: contract(map[string]interface{}{"id": "c2"}),
	})

	assert.Error(t, err)
	assert.Equal(t, 0, persisted)
	st.AssertExpectations(t)
}

func TestInvestigateOne_UnknownAgentMarksInvestigationFailed(t *testing.T) {
	st := &mockStore{}
	ag := &mockAgent{name: "some_other_agent"}
	m := newTestMonitor(t, st, ag)

	investigation := &store.InvestigationRecord{ID: "inv-3"}
	st.On("CreateAutoInvestigation", mock.Anything, mock.Anything).Return(investigation, nil)
	st.On("UpdateInvestigationStatus", mock.Anything, "inv-3", store.InvestigationFailed, 0.0, mock.Anything, 0).Return(nil)

	_, err := m.investigateOne(context.Background(), ScoredContract{
		Contract: contract(map[string]interface{}{"id": "c3"}),
	})

	assert.Error(t, err)
	ag.AssertNotCalled(t, "Process")
}

func TestExtractAnomalies_SkipsMalformedEntries(t *testing.T) {
	result := map[string]interface{}{
		"anomalies": []interface{}{
			map[string]interface{}{"anomaly_type": "valid", "score": 0.5},
			"not a map",
			42,
		},
	}
	out := extractAnomalies(result)
	assert.Len(t, out, 1)
	assert.Equal(t, "valid", out[0].anomalyType)
}

func TestExtractAnomalies_MissingKeyReturnsNil(t *testing.T) {
	assert.Nil(t, extractAnomalies(map[string]interface{}{}))
}
