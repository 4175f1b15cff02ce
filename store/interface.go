package store

import "context"

// AnomalyInvestigationStore is the narrow persistence boundary the rest
// of the system depends on; Postgres is the only concrete
// implementation, but nothing outside this package assumes that.
type AnomalyInvestigationStore interface {
	CreateInvestigation(ctx context.Context, args CreateInvestigationArgs) (*InvestigationRecord, error)
	CreateAutoInvestigation(ctx context.Context, args CreateInvestigationArgs) (*InvestigationRecord, error)
	UpdateInvestigationStatus(ctx context.Context, id string, status InvestigationStatus, progress float64, results []map[string]interface{}, anomaliesFound int) error

	CreateAnomaly(ctx context.Context, args CreateAnomalyArgs) (*Anomaly, error)
	GetAnomalies(ctx context.Context, filter AnomalyFilter, limit, offset int) ([]Anomaly, error)
	UpdateAnomalyStatus(ctx context.Context, id string, status AnomalyStatus, assignedTo string) (*Anomaly, error)

	CreateAlert(ctx context.Context, args CreateAlertArgs) (*Alert, error)
	UpdateAlertStatus(ctx context.Context, id string, status AlertStatus) error
}
