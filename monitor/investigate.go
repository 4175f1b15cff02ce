package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/sentinela-labs/sentinela/agent"
	"github.com/sentinela-labs/sentinela/store"
)

const anomalyDetectAction = "detect_anomalies"

// investigateBatch creates an auto-investigation record per scored
// contract, runs the anomaly-detection agent against it, and persists
// any anomalies found. One contract's failure never aborts the batch:
// an agent lookup or Process error is logged and the loop continues.
// Investigations are paced by cfg.InvestigationSleep to stay polite to
// the upstream feed and whatever backs the anomaly-detection agent.
func (m *Monitor) investigateBatch(ctx context.Context, scored []ScoredContract) (investigationsCreated, anomaliesDetected int) {
	for i, sc := range scored {
		if ctx.Err() != nil {
			return investigationsCreated, anomaliesDetected
		}

		anomalies, err := m.investigateOne(ctx, sc)
		investigationsCreated++
		anomaliesDetected += anomalies
		if err != nil {
			m.logger.Warn("contract investigation failed", map[string]interface{}{
				"contract_id": sc.Contract.ID(), "error": err.Error(),
			})
		}

		if i < len(scored)-1 {
			select {
			case <-ctx.Done():
				return investigationsCreated, anomaliesDetected
			case <-time.After(m.cfg.InvestigationSleep):
			}
		}
	}
	return investigationsCreated, anomaliesDetected
}

// investigateOne runs the full create-investigate-persist sequence for
// a single suspicious contract, returning the number of anomalies
// persisted.
func (m *Monitor) investigateOne(ctx context.Context, sc ScoredContract) (int, error) {
	contractID := sc.Contract.ID()

	investigation, err := m.store.CreateAutoInvestigation(ctx, store.CreateInvestigationArgs{
		Query: fmt.Sprintf("auto-investigation: contract %s (score %d)", contractID, sc.Score),
		Context: map[string]interface{}{
			"contract_id":     contractID,
			"suspicion_score": sc.Score,
			"reasons":         sc.Reasons,
			"auto_triggered":  true,
		},
		InitiatedBy: m.cfg.SystemUserID,
	})
	if err != nil {
		return 0, fmt.Errorf("create auto investigation: %w", err)
	}

	detector, err := m.registry.Lookup(m.anomalyAgentName)
	if err != nil {
		m.failInvestigation(ctx, investigation.ID, err)
		return 0, fmt.Errorf("lookup anomaly agent: %w", err)
	}

	resp, err := detector.Process(ctx, agent.Message{
		Sender:    "auto_investigation_monitor",
		Recipient: m.anomalyAgentName,
		Action:    anomalyDetectAction,
		Payload: map[string]interface{}{
			"contract":        map[string]interface{}(sc.Contract),
			"suspicion_score": sc.Score,
			"reasons":         sc.Reasons,
		},
		ContextRef: investigation.ID,
	})
	if err != nil {
		m.failInvestigation(ctx, investigation.ID, err)
		return 0, fmt.Errorf("process anomaly detection: %w", err)
	}
	if resp.Status == agent.StatusError {
		m.failInvestigation(ctx, investigation.ID, fmt.Errorf("%s", resp.Error))
		return 0, fmt.Errorf("anomaly agent returned error status: %s", resp.Error)
	}

	anomalies := extractAnomalies(resp.Result)
	persisted := 0
	var results []map[string]interface{}
	for _, a := range anomalies {
		created, cerr := m.store.CreateAnomaly(ctx, store.CreateAnomalyArgs{
			AutoInvestigationID: investigation.ID,
			Source:              "auto_monitor",
			SourceID:            contractID,
			AnomalyType:         a.anomalyType,
			Score:               a.score,
			Title:               a.title,
			Description:         a.description,
			Indicators:          a.indicators,
			Recommendations:     a.recommendations,
			ContractSnapshot:    map[string]interface{}(sc.Contract),
		})
		if cerr != nil {
			m.logger.Warn("persisting anomaly failed", map[string]interface{}{
				"contract_id": contractID, "investigation_id": investigation.ID, "error": cerr.Error(),
			})
			continue
		}
		persisted++
		results = append(results, map[string]interface{}{"anomaly_id": created.ID, "severity": string(created.Severity)})
	}

	if err := m.store.UpdateInvestigationStatus(ctx, investigation.ID, store.InvestigationCompleted, 1.0, results, persisted); err != nil {
		m.logger.Warn("updating investigation status failed", map[string]interface{}{"investigation_id": investigation.ID, "error": err.Error()})
	}

	return persisted, nil
}

func (m *Monitor) failInvestigation(ctx context.Context, id string, cause error) {
	if err := m.store.UpdateInvestigationStatus(ctx, id, store.InvestigationFailed, 0, []map[string]interface{}{
		{"error": cause.Error()},
	}, 0); err != nil {
		m.logger.Warn("marking investigation failed also failed", map[string]interface{}{"investigation_id": id, "error": err.Error()})
	}
}

// detectedAnomaly is the normalized shape this package expects back from
// an anomaly-detection agent's Response.Result["anomalies"] entries.
type detectedAnomaly struct {
	anomalyType     string
	score           float64
	title           string
	description     string
	indicators      []string
	recommendations []string
}

// extractAnomalies defensively decodes whatever shape the agent
// returned; malformed or missing entries are skipped rather than
// failing the whole investigation, since one bad entry shouldn't
// discard the rest.
func extractAnomalies(result map[string]interface{}) []detectedAnomaly {
	raw, ok := result["anomalies"]
	if !ok {
		return nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	var out []detectedAnomaly
	for _, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, detectedAnomaly{
			anomalyType:     stringOf(entry["anomaly_type"]),
			score:           floatOf(entry["score"]),
			title:           stringOf(entry["title"]),
			description:     stringOf(entry["description"]),
			indicators:      stringsOf(entry["indicators"]),
			recommendations: stringsOf(entry["recommendations"]),
		})
	}
	return out
}

func stringOf(v interface{}) string {
	s, _ := v.(string)
	return s
}

func floatOf(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func stringsOf(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
