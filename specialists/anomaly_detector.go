package specialists

import (
	"context"
	"strings"
	"time"

	"github.com/sentinela-labs/sentinela/agent"
)

// valueOutlierThreshold flags a contract value as a price outlier,
// matching the monitor's own high-value signal so both paths agree on
// what "suspicious" means.
const valueOutlierThreshold = 100000.0

var detectorEmergencyModalities = []string{"dispensa", "inexigibilidade"}

// AnomalyDetector scores one contract's payload for the three signals
// the rest of the system already recognizes: unusually high value,
// an emergency (no-bid) modality, and a single bidder.
type AnomalyDetector struct {
	baseAgent
}

// NewAnomalyDetector builds the anomaly_detector specialist.
func NewAnomalyDetector() *AnomalyDetector {
	return &AnomalyDetector{baseAgent{
		name:        "anomaly_detector",
		description: "Scores one contract for pricing, modality, and competition anomalies.",
		capabilities: []agent.Capability{
			{
				Name:        "detect_anomalies",
				Description: "Evaluate one contract payload and return any anomalies found.",
				InputKeys:   []string{"contract"},
				OutputKeys:  []string{"anomalies"},
			},
		},
	}}
}

func (a *AnomalyDetector) Process(ctx context.Context, msg agent.Message) (*agent.Response, error) {
	started := time.Now()
	contract := payloadMap(msg, "contract")
	if contract == nil {
		return completed(a.name, started, map[string]interface{}{"anomalies": []interface{}{}}), nil
	}

	var anomalies []interface{}

	if valor, ok := payloadFloat(contract, "valorInicial", "valorGlobal"); ok && valor > valueOutlierThreshold {
		anomalies = append(anomalies, map[string]interface{}{
			"anomaly_type": "price_outlier",
			"score":        scoreFor(valor, valueOutlierThreshold),
			"title":        "Contract value exceeds category threshold",
			"description":  "Contract value is substantially above the configured high-value threshold.",
			"indicators":   []string{"value_above_threshold"},
			"recommendations": []string{
				"Compare against median value for the same modality and organization.",
			},
		})
	}

	modalidade := strings.ToLower(payloadString(contract, "modalidadeLicitacao"))
	for _, m := range detectorEmergencyModalities {
		if strings.Contains(modalidade, m) {
			anomalies = append(anomalies, map[string]interface{}{
				"anomaly_type": "emergency_process",
				"score":        0.8,
				"title":        "Contract awarded via emergency modality",
				"description":  "Modality bypasses competitive bidding.",
				"indicators":   []string{"modality_" + m},
				"recommendations": []string{
					"Verify the legal justification on file for this modality.",
				},
			})
			break
		}
	}

	if n, ok := payloadFloat(contract, "numeroProponentes"); ok && n == 1 {
		anomalies = append(anomalies, map[string]interface{}{
			"anomaly_type": "single_bidder",
			"score":        0.7,
			"title":        "Only one proponent participated",
			"description":  "A single-bidder outcome in an ostensibly competitive process.",
			"indicators":   []string{"single_bidder"},
			"recommendations": []string{
				"Check whether the tender notice had unusually narrow eligibility requirements.",
			},
		})
	}

	if anomalies == nil {
		anomalies = []interface{}{}
	}
	return completed(a.name, started, map[string]interface{}{"anomalies": anomalies}), nil
}

// scoreFor maps a value's multiple of threshold onto (0, 1), so a
// contract at 2x threshold scores lower than one at 10x.
func scoreFor(value, threshold float64) float64 {
	ratio := value / threshold
	score := 0.5 + (ratio-1)*0.05
	if score > 0.99 {
		score = 0.99
	}
	if score < 0.5 {
		score = 0.5
	}
	return score
}
