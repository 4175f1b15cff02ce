// Package store implements the Anomaly & Investigation Store: the
// durable record of investigations, auto-investigations, anomalies, and
// alerts behind a narrow interface, backed by Postgres via pgx.
package store

import "time"

// InvestigationStatus mirrors the lifecycle an investigation or
// auto-investigation record passes through.
type InvestigationStatus string

const (
	InvestigationPending   InvestigationStatus = "pending"
	InvestigationRunning   InvestigationStatus = "running"
	InvestigationCompleted InvestigationStatus = "completed"
	InvestigationFailed    InvestigationStatus = "failed"
)

// InvestigationKind discriminates the two parallel tables an
// InvestigationRecord can represent: a user-initiated investigation, or
// one the auto-investigation monitor created unattended.
type InvestigationKind string

const (
	KindInvestigation     InvestigationKind = "investigation"
	KindAutoInvestigation InvestigationKind = "auto_investigation"
)

// InvestigationRecord is the persisted row for both investigations and
// auto_investigations; Kind discriminates which logical table it
// belongs to (resolved open question: one Go type, two backing tables).
type InvestigationRecord struct {
	ID             string
	Kind           InvestigationKind
	Query          string
	Context        map[string]interface{}
	Status         InvestigationStatus
	StartedAt      time.Time
	CompletedAt    *time.Time
	InitiatedBy    string
	Results        []map[string]interface{}
	AnomaliesFound int
	Progress       float64
}

// AnomalyStatus is the triage state of a persisted Anomaly.
type AnomalyStatus string

const (
	AnomalyDetected AnomalyStatus = "detected"
	AnomalyTriaged  AnomalyStatus = "triaged"
	AnomalyResolved AnomalyStatus = "resolved"
)

// Anomaly is a persisted anomaly row. Exactly one of InvestigationID /
// AutoInvestigationID is non-empty; Severity is always DeriveSeverity
// applied to Score.
type Anomaly struct {
	ID                 string
	InvestigationID    string
	AutoInvestigationID string
	Source             string
	SourceID           string
	AnomalyType        string
	Score              float64
	Severity           Severity
	Title              string
	Description        string
	Indicators         []string
	Recommendations    []string
	ContractSnapshot   map[string]interface{}
	Status             AnomalyStatus
	Metadata           map[string]interface{}
	CreatedAt          time.Time
}

// AlertType is the channel an Alert was (or will be) dispatched over.
type AlertType string

const (
	AlertWebhook   AlertType = "webhook"
	AlertEmail     AlertType = "email"
	AlertDashboard AlertType = "dashboard"
)

// AlertStatus tracks delivery outcome.
type AlertStatus string

const (
	AlertPending AlertStatus = "pending"
	AlertSent    AlertStatus = "sent"
	AlertFailed  AlertStatus = "failed"
)

// Alert is a persisted alert row, always referencing an existing
// Anomaly.
type Alert struct {
	ID         string
	AnomalyID  string
	AlertType  AlertType
	Severity   Severity
	Title      string
	Message    string
	Recipients []string
	Status     AlertStatus
	Metadata   map[string]interface{}
	CreatedAt  time.Time
}

// AnomalyFilter narrows GetAnomalies results.
type AnomalyFilter struct {
	Severity        Severity
	Status          AnomalyStatus
	Source          string
	InvestigationID string
}

// CreateInvestigationArgs is the input to CreateInvestigation /
// CreateAutoInvestigation.
type CreateInvestigationArgs struct {
	Query       string
	Context     map[string]interface{}
	InitiatedBy string
}

// CreateAnomalyArgs is the input to CreateAnomaly. Severity is computed
// server-side from Score, never trusted from the caller.
type CreateAnomalyArgs struct {
	InvestigationID     string
	AutoInvestigationID string
	Source              string
	SourceID             string
	AnomalyType          string
	Score                float64
	Title                string
	Description          string
	Indicators           []string
	Recommendations      []string
	ContractSnapshot     map[string]interface{}
	Metadata             map[string]interface{}
}

// CreateAlertArgs is the input to CreateAlert.
type CreateAlertArgs struct {
	AnomalyID  string
	AlertType  AlertType
	Severity   Severity
	Title      string
	Message    string
	Recipients []string
	Metadata   map[string]interface{}
}
