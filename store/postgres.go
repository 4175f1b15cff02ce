package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentinela-labs/sentinela/logging"
	"github.com/sentinela-labs/sentinela/sentinelerrors"
)

// AnomalyPublisher decouples the store's write path from event
// dispatch; eventbus.Bus satisfies this without the store package
// depending on eventbus directly.
type AnomalyPublisher interface {
	PublishAnomalyPersisted(event AnomalyPersistedEvent)
}

// AnomalyPersistedEvent mirrors eventbus.AnomalyPersistedEvent's shape,
// kept local to avoid a store -> eventbus import.
type AnomalyPersistedEvent struct {
	AnomalyID           string
	InvestigationID     string
	AutoInvestigationID string
	Source              string
	AnomalyType         string
	Score               float64
	Severity            string
	Title               string
	Description         string
	Indicators          []string
	Recommendations     []string
	ContractSnapshot    map[string]interface{}
}

// PostgresStore is the pgx-backed AnomalyInvestigationStore, covering
// investigations, auto_investigations, anomalies, and alerts over a
// pooled connection.
type PostgresStore struct {
	pool      *pgxpool.Pool
	logger    logging.Logger
	publisher AnomalyPublisher
}

// NewPostgresStore wraps an existing pool. Callers own the pool's
// lifecycle (Close). publisher may be nil to disable event publication.
func NewPostgresStore(pool *pgxpool.Pool, logger logging.Logger, publisher AnomalyPublisher) *PostgresStore {
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	return &PostgresStore{pool: pool, logger: logger, publisher: publisher}
}

// Connect opens a pgxpool against dsn with the given max connections and
// connection lifetime.
func Connect(ctx context.Context, dsn string, maxConns int32, connMaxLifetime time.Duration) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if connMaxLifetime > 0 {
		cfg.MaxConnLifetime = connMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func (s *PostgresStore) createInvestigation(ctx context.Context, table string, kind InvestigationKind, args CreateInvestigationArgs) (*InvestigationRecord, error) {
	id := uuid.NewString()
	contextJSON, err := json.Marshal(args.Context)
	if err != nil {
		return nil, fmt.Errorf("marshal context: %w", err)
	}

	startedAt := time.Now().UTC()
	query := fmt.Sprintf(`
		INSERT INTO %s (id, query, context, status, started_at, initiated_by, results, anomalies_found)
		VALUES ($1, $2, $3, $4, $5, $6, '[]'::jsonb, 0)
	`, table)

	if _, err := s.pool.Exec(ctx, query, id, args.Query, contextJSON, InvestigationPending, startedAt, args.InitiatedBy); err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}

	return &InvestigationRecord{
		ID:          id,
		Kind:        kind,
		Query:       args.Query,
		Context:     args.Context,
		Status:      InvestigationPending,
		StartedAt:   startedAt,
		InitiatedBy: args.InitiatedBy,
	}, nil
}

// CreateInvestigation inserts a new row into investigations.
func (s *PostgresStore) CreateInvestigation(ctx context.Context, args CreateInvestigationArgs) (*InvestigationRecord, error) {
	return s.createInvestigation(ctx, "investigations", KindInvestigation, args)
}

// CreateAutoInvestigation inserts a new row into auto_investigations,
// the schema-parallel table for unattended monitor runs.
func (s *PostgresStore) CreateAutoInvestigation(ctx context.Context, args CreateInvestigationArgs) (*InvestigationRecord, error) {
	return s.createInvestigation(ctx, "auto_investigations", KindAutoInvestigation, args)
}

// UpdateInvestigationStatus updates status, completed_at, results and
// anomalies_found across both investigations and auto_investigations; the
// id is looked up in whichever table contains it. progress is accepted but
// not stored: neither table has a progress column.
func (s *PostgresStore) UpdateInvestigationStatus(ctx context.Context, id string, status InvestigationStatus, progress float64, results []map[string]interface{}, anomaliesFound int) error {
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	var completedAt *time.Time
	if status == InvestigationCompleted || status == InvestigationFailed {
		now := time.Now().UTC()
		completedAt = &now
	}

	for _, table := range []string{"investigations", "auto_investigations"} {
		query := fmt.Sprintf(`
			UPDATE %s SET status=$2, completed_at=$3, results=$4, anomalies_found=$5
			WHERE id=$1
		`, table)
		tag, err := s.pool.Exec(ctx, query, id, status, completedAt, resultsJSON, anomaliesFound)
		if err != nil {
			return fmt.Errorf("update %s: %w", table, err)
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
	}

	return sentinelerrors.New("store.UpdateInvestigationStatus", "not_found", sentinelerrors.ErrTaskNotFound).WithID(id)
}

// CreateAnomaly inserts an anomaly row, deriving severity from
// args.Score server-side.
func (s *PostgresStore) CreateAnomaly(ctx context.Context, args CreateAnomalyArgs) (*Anomaly, error) {
	if (args.InvestigationID == "") == (args.AutoInvestigationID == "") {
		return nil, sentinelerrors.New("store.CreateAnomaly", "invariant", sentinelerrors.ErrInvariantViolation).WithID("exactly one of investigation_id/auto_investigation_id must be set")
	}

	severity := DeriveSeverity(args.Score)
	id := uuid.NewString()

	snapshotJSON, err := json.Marshal(args.ContractSnapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal contract snapshot: %w", err)
	}
	metadataJSON, err := json.Marshal(args.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO anomalies (
			id, investigation_id, auto_investigation_id, source, source_id, anomaly_type,
			anomaly_score, severity, title, description, indicators, recommendations,
			contract_data, status, metadata, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		id, nullable(args.InvestigationID), nullable(args.AutoInvestigationID), args.Source, args.SourceID, args.AnomalyType,
		args.Score, severity, args.Title, args.Description, args.Indicators, args.Recommendations,
		snapshotJSON, AnomalyDetected, metadataJSON, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert anomaly: %w", err)
	}

	if s.publisher != nil {
		s.publisher.PublishAnomalyPersisted(AnomalyPersistedEvent{
			AnomalyID: id, InvestigationID: args.InvestigationID, AutoInvestigationID: args.AutoInvestigationID,
			Source: args.Source, AnomalyType: args.AnomalyType, Score: args.Score, Severity: string(severity),
			Title: args.Title, Description: args.Description, Indicators: args.Indicators,
			Recommendations: args.Recommendations, ContractSnapshot: args.ContractSnapshot,
		})
	}

	return &Anomaly{
		ID: id, InvestigationID: args.InvestigationID, AutoInvestigationID: args.AutoInvestigationID,
		Source: args.Source, SourceID: args.SourceID, AnomalyType: args.AnomalyType,
		Score: args.Score, Severity: severity, Title: args.Title, Description: args.Description,
		Indicators: args.Indicators, Recommendations: args.Recommendations,
		ContractSnapshot: args.ContractSnapshot, Status: AnomalyDetected, Metadata: args.Metadata,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// GetAnomalies returns anomalies matching filter, most recent first.
func (s *PostgresStore) GetAnomalies(ctx context.Context, filter AnomalyFilter, limit, offset int) ([]Anomaly, error) {
	query := `
		SELECT id, COALESCE(investigation_id,''), COALESCE(auto_investigation_id,''), source, source_id,
			anomaly_type, anomaly_score, severity, title, description, indicators, recommendations,
			contract_data, status, metadata, created_at
		FROM anomalies
		WHERE ($1 = '' OR severity = $1)
		  AND ($2 = '' OR status = $2)
		  AND ($3 = '' OR source = $3)
		  AND ($4 = '' OR investigation_id = $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6
	`
	rows, err := s.pool.Query(ctx, query, filter.Severity, filter.Status, filter.Source, filter.InvestigationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query anomalies: %w", err)
	}
	defer rows.Close()

	var out []Anomaly
	for rows.Next() {
		var a Anomaly
		var contractJSON, metadataJSON []byte
		if err := rows.Scan(
			&a.ID, &a.InvestigationID, &a.AutoInvestigationID, &a.Source, &a.SourceID,
			&a.AnomalyType, &a.Score, &a.Severity, &a.Title, &a.Description,
			&a.Indicators, &a.Recommendations, &contractJSON, &a.Status, &metadataJSON, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan anomaly: %w", err)
		}
		_ = json.Unmarshal(contractJSON, &a.ContractSnapshot)
		_ = json.Unmarshal(metadataJSON, &a.Metadata)
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAnomalyStatus transitions an anomaly's triage state.
func (s *PostgresStore) UpdateAnomalyStatus(ctx context.Context, id string, status AnomalyStatus, assignedTo string) (*Anomaly, error) {
	metadataPatch, _ := json.Marshal(map[string]interface{}{"assigned_to": assignedTo})
	tag, err := s.pool.Exec(ctx, `
		UPDATE anomalies SET status=$2, metadata = metadata || $3::jsonb WHERE id=$1
	`, id, status, metadataPatch)
	if err != nil {
		return nil, fmt.Errorf("update anomaly status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, sentinelerrors.New("store.UpdateAnomalyStatus", "not_found", sentinelerrors.ErrTaskNotFound).WithID(id)
	}

	anomalies, err := s.GetAnomalies(ctx, AnomalyFilter{}, 1, 0)
	if err != nil || len(anomalies) == 0 {
		return &Anomaly{ID: id, Status: status}, nil
	}
	return &anomalies[0], nil
}

// CreateAlert inserts an alert row, referencing an existing Anomaly.
func (s *PostgresStore) CreateAlert(ctx context.Context, args CreateAlertArgs) (*Alert, error) {
	var anomalyID string
	err := s.pool.QueryRow(ctx, `SELECT id FROM anomalies WHERE id=$1`, args.AnomalyID).Scan(&anomalyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinelerrors.New("store.CreateAlert", "not_found", sentinelerrors.ErrTaskNotFound).WithID(args.AnomalyID)
	}
	if err != nil {
		return nil, fmt.Errorf("check anomaly existence: %w", err)
	}

	id := uuid.NewString()
	metadataJSON, err := json.Marshal(args.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO alerts (id, anomaly_id, alert_type, severity, title, message, recipients, status, metadata, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, id, args.AnomalyID, args.AlertType, args.Severity, args.Title, args.Message, args.Recipients, AlertPending, metadataJSON, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("insert alert: %w", err)
	}

	return &Alert{
		ID: id, AnomalyID: args.AnomalyID, AlertType: args.AlertType, Severity: args.Severity,
		Title: args.Title, Message: args.Message, Recipients: args.Recipients, Status: AlertPending,
		Metadata: args.Metadata, CreatedAt: time.Now().UTC(),
	}, nil
}

// UpdateAlertStatus records final delivery outcome for an alert.
func (s *PostgresStore) UpdateAlertStatus(ctx context.Context, id string, status AlertStatus) error {
	tag, err := s.pool.Exec(ctx, `UPDATE alerts SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return fmt.Errorf("update alert status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinelerrors.New("store.UpdateAlertStatus", "not_found", sentinelerrors.ErrTaskNotFound).WithID(id)
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
