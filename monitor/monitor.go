// Package monitor implements the Auto-Investigation Monitor: a
// scheduled fetch -> pre-screen -> investigate -> persist -> alert
// pipeline over Portal da Transparência contracts, plus historical
// reanalysis over weekly batches.
package monitor

import (
	"context"
	"time"

	"github.com/sentinela-labs/sentinela/agent"
	"github.com/sentinela-labs/sentinela/logging"
	"github.com/sentinela-labs/sentinela/store"
	"github.com/sentinela-labs/sentinela/telemetry"
	"github.com/sentinela-labs/sentinela/transparency"
)

// Config holds the monitor's tunable thresholds.
type Config struct {
	ValueThreshold        float64
	DailyContractLimit    int
	PriorityOrganizations []string
	SystemUserID          string

	// InvestigationSleep paces investigations within a batch; original
	// default ~500ms.
	InvestigationSleep time.Duration
	// BatchSleep paces fetches across historical-reanalysis batches.
	BatchSleep time.Duration
}

// DefaultConfig mirrors the upstream literal defaults.
func DefaultConfig() Config {
	return Config{
		ValueThreshold:     100000.0,
		DailyContractLimit: 500,
		SystemUserID:       "system-auto-monitor",
		InvestigationSleep: 500 * time.Millisecond,
		BatchSleep:         time.Second,
	}
}

// Monitor runs the pipeline. The anomaly-detection agent is resolved
// from registry by name on every investigation rather than cached, so a
// hot-swapped registration takes effect immediately. Alert dispatch is
// deliberately not wired directly here: CreateAnomaly publishes to the
// event bus, and the alert service subscribes independently, per the
// persist/alert decoupling used throughout this system.
type Monitor struct {
	cfg          Config
	transparency *transparency.Client
	registry     *agent.Registry
	store        store.AnomalyInvestigationStore
	logger       logging.Logger
	tel          telemetry.Telemetry

	anomalyAgentName string
}

// New builds a Monitor. anomalyAgentName is the registry key for the
// anomaly-detection specialist invoked per suspicious contract.
func New(cfg Config, client *transparency.Client, registry *agent.Registry, st store.AnomalyInvestigationStore, anomalyAgentName string, logger logging.Logger, tel telemetry.Telemetry) *Monitor {
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	if tel == nil {
		tel = telemetry.NoOpTelemetry{}
	}
	if anomalyAgentName == "" {
		anomalyAgentName = "anomaly_detector"
	}
	return &Monitor{
		cfg: cfg, transparency: client, registry: registry, store: st,
		anomalyAgentName: anomalyAgentName, logger: logger, tel: tel,
	}
}

// RunSummary is the result envelope shared by MonitorNewContracts and
// ReanalyzeHistoricalContracts.
type RunSummary struct {
	MonitoringType        string    `json:"monitoring_type"`
	ContractsAnalyzed     int       `json:"contracts_analyzed"`
	SuspiciousFound       int       `json:"suspicious_found"`
	InvestigationsCreated int       `json:"investigations_created"`
	AnomaliesDetected     int       `json:"anomalies_detected"`
	DurationSeconds       float64   `json:"duration_seconds"`
	Timestamp             time.Time `json:"timestamp"`
}

// MonitorNewContracts fetches and investigates contracts from the last
// lookbackHours, optionally scoped to organizationCodes.
func (m *Monitor) MonitorNewContracts(ctx context.Context, lookbackHours int, organizationCodes []string) (RunSummary, error) {
	ctx, span := m.tel.StartSpan(ctx, "monitor.MonitorNewContracts")
	defer span.End()

	start := time.Now()
	m.logger.Info("auto monitoring started", map[string]interface{}{"lookback_hours": lookbackHours, "org_count": len(organizationCodes)})

	end := time.Now().UTC()
	begin := end.Add(-time.Duration(lookbackHours) * time.Hour)

	contracts := m.fetchRecentContracts(ctx, begin, end, organizationCodes, m.cfg.DailyContractLimit)
	m.logger.Info("contracts fetched", map[string]interface{}{"count": len(contracts)})

	suspicious := preScreen(contracts, m.cfg.ValueThreshold)
	m.logger.Info("contracts pre-screened", map[string]interface{}{"total": len(contracts), "suspicious": len(suspicious)})

	investigations, anomalyCount := m.investigateBatch(ctx, suspicious)

	summary := RunSummary{
		MonitoringType:        "new_contracts",
		ContractsAnalyzed:     len(contracts),
		SuspiciousFound:       len(suspicious),
		InvestigationsCreated: investigations,
		AnomaliesDetected:     anomalyCount,
		DurationSeconds:       time.Since(start).Seconds(),
		Timestamp:             time.Now().UTC(),
	}
	m.logger.Info("auto monitoring completed", map[string]interface{}{
		"contracts_analyzed": summary.ContractsAnalyzed, "suspicious_found": summary.SuspiciousFound,
		"investigations_created": summary.InvestigationsCreated, "anomalies_detected": summary.AnomaliesDetected,
	})
	return summary, nil
}

// ReanalyzeHistoricalContracts runs the same pipeline across weekly
// batches spanning monthsBack months.
func (m *Monitor) ReanalyzeHistoricalContracts(ctx context.Context, monthsBack, batchSize int) (RunSummary, error) {
	ctx, span := m.tel.StartSpan(ctx, "monitor.ReanalyzeHistoricalContracts")
	defer span.End()

	start := time.Now()
	m.logger.Info("historical reanalysis started", map[string]interface{}{"months_back": monthsBack, "batch_size": batchSize})

	end := time.Now().UTC()
	begin := end.Add(-time.Duration(monthsBack*30) * 24 * time.Hour)

	var totalAnalyzed, totalInvestigations, totalAnomalies int

	current := begin
	batchEnd := begin.Add(7 * 24 * time.Hour)
	for current.Before(end) {
		effectiveEnd := batchEnd
		if end.Before(effectiveEnd) {
			effectiveEnd = end
		}

		contracts := m.fetchRecentContracts(ctx, current, effectiveEnd, nil, batchSize)
		if len(contracts) == 0 {
			current = batchEnd
			batchEnd = batchEnd.Add(7 * 24 * time.Hour)
			continue
		}

		suspicious := preScreen(contracts, m.cfg.ValueThreshold)
		if len(suspicious) > 0 {
			investigations, anomalyCount := m.investigateBatch(ctx, suspicious)
			totalInvestigations += investigations
			totalAnomalies += anomalyCount
		}
		totalAnalyzed += len(contracts)

		m.logger.Info("historical batch processed", map[string]interface{}{
			"from": current.Format("2006-01-02"), "to": batchEnd.Format("2006-01-02"),
			"contracts": len(contracts), "suspicious": len(suspicious),
		})

		current = batchEnd
		batchEnd = batchEnd.Add(7 * 24 * time.Hour)

		select {
		case <-ctx.Done():
			return RunSummary{}, ctx.Err()
		case <-time.After(m.cfg.BatchSleep):
		}
	}

	summary := RunSummary{
		MonitoringType:        "historical_reanalysis",
		ContractsAnalyzed:     totalAnalyzed,
		InvestigationsCreated: totalInvestigations,
		AnomaliesDetected:     totalAnomalies,
		DurationSeconds:       time.Since(start).Seconds(),
		Timestamp:             time.Now().UTC(),
	}
	m.logger.Info("historical reanalysis completed", map[string]interface{}{
		"contracts_analyzed": summary.ContractsAnalyzed, "investigations_created": summary.InvestigationsCreated,
		"anomalies_detected": summary.AnomaliesDetected,
	})
	return summary, nil
}

// fetchRecentContracts fetches per-organization if codes are given,
// else a single general fetch. A fetch error for a batch is logged and
// the batch is treated as empty.
func (m *Monitor) fetchRecentContracts(ctx context.Context, start, end time.Time, organizationCodes []string, limit int) []transparency.ContractRecord {
	filter := transparency.Filter{
		DataInicial: start.Format("02/01/2006"),
		DataFinal:   end.Format("02/01/2006"),
	}

	if len(organizationCodes) == 0 {
		contracts, err := m.transparency.GetContracts(ctx, filter)
		if err != nil {
			m.logger.Warn("contract fetch failed", map[string]interface{}{"error": err.Error()})
			return nil
		}
		return contracts
	}

	var all []transparency.ContractRecord
	perOrgLimit := limit / len(organizationCodes)
	for _, code := range organizationCodes {
		orgFilter := filter
		orgFilter.CodigoOrgao = code
		orgFilter.TamanhoPagina = perOrgLimit
		contracts, err := m.transparency.GetContracts(ctx, orgFilter)
		if err != nil {
			m.logger.Warn("contract fetch failed", map[string]interface{}{"org_code": code, "error": err.Error()})
			continue
		}
		all = append(all, contracts...)
	}
	return all
}
