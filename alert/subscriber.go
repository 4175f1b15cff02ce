package alert

import (
	"context"

	"github.com/sentinela-labs/sentinela/store"
)

// DispatchOnPersisted is the handler to register against the event bus'
// anomaly-persisted subject: it fans out only for severities in
// {high, critical}, per the monitor's persist-and-alert step, so
// low/medium anomalies are recorded without paging anyone.
func (s *Service) DispatchOnPersisted(event store.AnomalyPersistedEvent) {
	severity := store.Severity(event.Severity)
	if severity != store.SeverityHigh && severity != store.SeverityCritical {
		return
	}

	s.SendAnomalyAlert(context.Background(), AnomalyAlertInput{
		ID:              event.AnomalyID,
		Title:           event.Title,
		Severity:        severity,
		Score:           event.Score,
		Source:          event.Source,
		AnomalyType:     event.AnomalyType,
		Description:     event.Description,
		Indicators:      event.Indicators,
		Recommendations: event.Recommendations,
		ContractData:    event.ContractSnapshot,
	}, DefaultChannels)
}
