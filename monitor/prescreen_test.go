package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sentinela-labs/sentinela/transparency"
)

func contract(fields map[string]interface{}) transparency.ContractRecord {
	return transparency.ContractRecord(fields)
}

func TestPreScreen_ScoringIsAdditive(t *testing.T) {
	tests := []struct {
		name          string
		record        transparency.ContractRecord
		expectScored  bool
		expectedScore int
	}{
		{
			name: "high value alone is below threshold",
			record: contract(map[string]interface{}{
				"id": "c1", "valorInicial": 500000.0, "modalidadeLicitacao": "Pregão", "numeroProponentes": 5.0,
			}),
			expectScored: false,
		},
		{
			name: "high value plus single bidder reaches threshold",
			record: contract(map[string]interface{}{
				"id": "c2", "valorInicial": 500000.0, "modalidadeLicitacao": "Pregão", "numeroProponentes": 1.0,
			}),
			expectScored:  true,
			expectedScore: suspicionScoreHighValue + suspicionScoreSingleBidder,
		},
		{
			name: "emergency process alone reaches threshold",
			record: contract(map[string]interface{}{
				"id": "c3", "valorInicial": 1000.0, "modalidadeLicitacao": "Dispensa de licitação", "numeroProponentes": 3.0,
			}),
			expectScored:  true,
			expectedScore: suspicionScoreEmergencyProcess,
		},
		{
			name: "all three signals stack",
			record: contract(map[string]interface{}{
				"id": "c4", "valorInicial": 900000.0, "modalidadeLicitacao": "Inexigibilidade", "numeroProponentes": 1.0,
			}),
			expectScored:  true,
			expectedScore: suspicionScoreHighValue + suspicionScoreEmergencyProcess + suspicionScoreSingleBidder,
		},
		{
			name: "clean contract scores zero",
			record: contract(map[string]interface{}{
				"id": "c5", "valorInicial": 1000.0, "modalidadeLicitacao": "Concorrência", "numeroProponentes": 8.0,
			}),
			expectScored: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scored := preScreen([]transparency.ContractRecord{tt.record}, 100000.0)
			if !tt.expectScored {
				assert.Empty(t, scored)
				return
			}
			assert.Len(t, scored, 1)
			assert.Equal(t, tt.expectedScore, scored[0].Score)
		})
	}
}

func TestPreScreen_PreservesFetchOrder(t *testing.T) {
	records := []transparency.ContractRecord{
		contract(map[string]interface{}{"id": "a", "modalidadeLicitacao": "Dispensa"}),
		contract(map[string]interface{}{"id": "b", "modalidadeLicitacao": "Pregão"}),
		contract(map[string]interface{}{"id": "c", "modalidadeLicitacao": "Inexigibilidade"}),
	}

	scored := preScreen(records, 100000.0)
	assert.Len(t, scored, 2)
	assert.Equal(t, "a", scored[0].Contract.ID())
	assert.Equal(t, "c", scored[1].Contract.ID())
}

func TestIsEmergencyModality(t *testing.T) {
	assert.True(t, isEmergencyModality("Dispensa de Licitação"))
	assert.True(t, isEmergencyModality("INEXIGIBILIDADE"))
	assert.False(t, isEmergencyModality("Pregão Eletrônico"))
	assert.False(t, isEmergencyModality(""))
}
