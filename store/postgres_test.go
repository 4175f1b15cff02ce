package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sentinela-labs/sentinela/internal/migrations"
	"github.com/sentinela-labs/sentinela/logging"
)

// recordingPublisher captures every event PublishAnomalyPersisted is
// called with, so tests can assert the decoupled publish path fires on
// CreateAnomaly without asserting anything about subscribers.
type recordingPublisher struct {
	events []AnomalyPersistedEvent
}

func (r *recordingPublisher) PublishAnomalyPersisted(event AnomalyPersistedEvent) {
	r.events = append(r.events, event)
}

// newTestStore spins up a disposable Postgres container, applies the
// schema migrations, and returns a PostgresStore over it. Requires a
// working Docker daemon; skips gracefully if containers cannot start.
func newTestStore(t *testing.T) (*PostgresStore, *recordingPublisher) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("sentinela_test"),
		tcpostgres.WithUsername("sentinela"),
		tcpostgres.WithPassword("sentinela"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2)),
	)
	if err != nil {
		t.Skipf("postgres container unavailable, skipping: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, migrations.Apply(dsn))

	pool, err := Connect(ctx, dsn, 5, 0)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	publisher := &recordingPublisher{}
	return NewPostgresStore(pool, &logging.NoOpLogger{}, publisher), publisher
}

func TestPostgresStore_CreateAndUpdateInvestigation(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	inv, err := st.CreateInvestigation(ctx, CreateInvestigationArgs{
		Query:       "contratos emergenciais em 2024",
		Context:     map[string]interface{}{"lookback_days": 30},
		InitiatedBy: "analyst-1",
	})
	require.NoError(t, err)
	assert.Equal(t, InvestigationPending, inv.Status)
	assert.NotEmpty(t, inv.ID)

	err = st.UpdateInvestigationStatus(ctx, inv.ID, InvestigationCompleted, 1.0,
		[]map[string]interface{}{{"found": 2}}, 2)
	require.NoError(t, err)
}

func TestPostgresStore_UpdateInvestigationStatus_UnknownIDFails(t *testing.T) {
	st, _ := newTestStore(t)
	err := st.UpdateInvestigationStatus(context.Background(), "does-not-exist", InvestigationFailed, 1.0, nil, 0)
	assert.Error(t, err)
}

func TestPostgresStore_CreateAnomaly_RequiresExactlyOneParent(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	_, err := st.CreateAnomaly(ctx, CreateAnomalyArgs{Source: "monitor", AnomalyType: "high_value", Score: 9})
	assert.Error(t, err, "neither investigation_id nor auto_investigation_id set")

	inv, err := st.CreateInvestigation(ctx, CreateInvestigationArgs{Query: "q", InitiatedBy: "u"})
	require.NoError(t, err)

	_, err = st.CreateAnomaly(ctx, CreateAnomalyArgs{
		InvestigationID:     inv.ID,
		AutoInvestigationID: "also-set",
		Source:              "monitor",
		AnomalyType:         "high_value",
		Score:               9,
	})
	assert.Error(t, err, "both set")
}

func TestPostgresStore_CreateAnomaly_DerivesSeverityAndPublishesEvent(t *testing.T) {
	st, publisher := newTestStore(t)
	ctx := context.Background()

	inv, err := st.CreateInvestigation(ctx, CreateInvestigationArgs{Query: "q", InitiatedBy: "u"})
	require.NoError(t, err)

	anomaly, err := st.CreateAnomaly(ctx, CreateAnomalyArgs{
		InvestigationID: inv.ID,
		Source:          "auto_monitor",
		SourceID:        "contract-1",
		AnomalyType:     "single_bidder",
		Score:           9.5,
		Title:           "Single bidder on high-value contract",
		Indicators:      []string{"single_bidder", "high_value"},
		ContractSnapshot: map[string]interface{}{"valorInicial": 500000.0},
	})
	require.NoError(t, err)
	assert.Equal(t, SeverityCritical, anomaly.Severity)
	assert.Equal(t, AnomalyDetected, anomaly.Status)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, anomaly.ID, publisher.events[0].AnomalyID)
	assert.Equal(t, "single_bidder", publisher.events[0].AnomalyType)
}

func TestPostgresStore_GetAnomalies_FiltersBySeverityAndSource(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	inv, err := st.CreateInvestigation(ctx, CreateInvestigationArgs{Query: "q", InitiatedBy: "u"})
	require.NoError(t, err)

	_, err = st.CreateAnomaly(ctx, CreateAnomalyArgs{InvestigationID: inv.ID, Source: "monitor", AnomalyType: "high_value", Score: 9})
	require.NoError(t, err)
	_, err = st.CreateAnomaly(ctx, CreateAnomalyArgs{InvestigationID: inv.ID, Source: "manual", AnomalyType: "low_value", Score: 1})
	require.NoError(t, err)

	found, err := st.GetAnomalies(ctx, AnomalyFilter{Source: "monitor"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "high_value", found[0].AnomalyType)
}

func TestPostgresStore_UpdateAnomalyStatus_UnknownIDFails(t *testing.T) {
	st, _ := newTestStore(t)
	_, err := st.UpdateAnomalyStatus(context.Background(), "nonexistent", AnomalyTriaged, "analyst-2")
	assert.Error(t, err)
}

func TestPostgresStore_CreateAlert_RequiresExistingAnomaly(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	_, err := st.CreateAlert(ctx, CreateAlertArgs{AnomalyID: "missing", AlertType: AlertWebhook})
	assert.Error(t, err)

	inv, err := st.CreateInvestigation(ctx, CreateInvestigationArgs{Query: "q", InitiatedBy: "u"})
	require.NoError(t, err)
	anomaly, err := st.CreateAnomaly(ctx, CreateAnomalyArgs{InvestigationID: inv.ID, Source: "monitor", AnomalyType: "t", Score: 5})
	require.NoError(t, err)

	alert, err := st.CreateAlert(ctx, CreateAlertArgs{
		AnomalyID: anomaly.ID, AlertType: AlertWebhook, Severity: anomaly.Severity,
		Title: "t", Message: "m", Recipients: []string{"ops@example.org"},
	})
	require.NoError(t, err)
	assert.Equal(t, AlertPending, alert.Status)

	require.NoError(t, st.UpdateAlertStatus(ctx, alert.ID, AlertSent))
}

func TestPostgresStore_UpdateAlertStatus_UnknownIDFails(t *testing.T) {
	st, _ := newTestStore(t)
	err := st.UpdateAlertStatus(context.Background(), "nonexistent", AlertSent)
	assert.Error(t, err)
}
