package monitor

import (
	"strings"

	"github.com/sentinela-labs/sentinela/transparency"
)

const suspicionThreshold = 3

// suspicionScoreHighValue is awarded when a contract's value exceeds the
// configured threshold.
const suspicionScoreHighValue = 2

// suspicionScoreEmergencyProcess is awarded for waiver/unenforceability
// modalities, which bypass competitive bidding entirely.
const suspicionScoreEmergencyProcess = 3

// suspicionScoreSingleBidder is awarded when exactly one proponent
// participated in an otherwise competitive process.
const suspicionScoreSingleBidder = 2

// emergencyModalities are bidding modalities that skip competition; a
// contract carrying one of these earns the largest single score bump.
var emergencyModalities = []string{"dispensa", "inexigibilidade"}

// ScoredContract pairs a fetched contract with its pre-screen score and
// the reasons it tripped.
type ScoredContract struct {
	Contract transparency.ContractRecord
	Score    int
	Reasons  []string
}

// preScreen is a pure, additive suspicion scorer: it never performs I/O
// and never suspends, so it can run over an arbitrarily large fetched
// batch synchronously. Only contracts reaching suspicionThreshold are
// returned, in fetch order.
func preScreen(contracts []transparency.ContractRecord, valueThreshold float64) []ScoredContract {
	var out []ScoredContract
	for _, c := range contracts {
		score := 0
		var reasons []string

		if valor, ok := c.Valor(); ok && valor > valueThreshold {
			score += suspicionScoreHighValue
			reasons = append(reasons, "high_value")
		}

		if isEmergencyModality(c.Modalidade()) {
			score += suspicionScoreEmergencyProcess
			reasons = append(reasons, "emergency_process")
		}

		if c.NumeroProponentes() == 1 {
			score += suspicionScoreSingleBidder
			reasons = append(reasons, "single_bidder")
		}

		if score >= suspicionThreshold {
			out = append(out, ScoredContract{Contract: c, Score: score, Reasons: reasons})
		}
	}
	return out
}

func isEmergencyModality(modalidade string) bool {
	lower := strings.ToLower(modalidade)
	for _, m := range emergencyModalities {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
