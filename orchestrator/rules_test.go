package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRuleEngine_CompilesDefaultRules(t *testing.T) {
	_, err := NewRuleEngine(DefaultRules)
	require.NoError(t, err)
}

func TestNewRuleEngine_RejectsInvalidCELExpression(t *testing.T) {
	_, err := NewRuleEngine([]Rule{{Name: "broken", Condition: "query.nonexistent_method()"}})
	assert.Error(t, err)
}

func TestRuleEngine_MatchesReturnsEveryTrueRuleInTableOrder(t *testing.T) {
	engine, err := NewRuleEngine(DefaultRules)
	require.NoError(t, err)

	matched, err := engine.Matches("relatório sobre anomalia em contrato regional")
	require.NoError(t, err)

	var names []string
	for _, r := range matched {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"anomaly_detection", "regional_analysis", "reporting"}, names)
}

func TestRuleEngine_MatchesIsCaseInsensitive(t *testing.T) {
	engine, err := NewRuleEngine(DefaultRules)
	require.NoError(t, err)

	matched, err := engine.Matches("ANOMALIA no CONTRATO")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "anomaly_detection", matched[0].Name)
}

func TestRuleEngine_MatchesOnBareRegionNameWithoutGenericRegionWord(t *testing.T) {
	engine, err := NewRuleEngine(DefaultRules)
	require.NoError(t, err)

	for _, name := range []string{"nordeste", "norte", "sul", "sudeste", "centro-oeste"} {
		matched, err := engine.Matches("contratos do " + name)
		require.NoError(t, err)
		var ruleNames []string
		for _, r := range matched {
			ruleNames = append(ruleNames, r.Name)
		}
		assert.Contains(t, ruleNames, "regional_analysis", "query with region name %q should match regional_analysis", name)
	}
}

func TestRuleEngine_MatchesReturnsEmptyForUnrelatedQuery(t *testing.T) {
	engine, err := NewRuleEngine(DefaultRules)
	require.NoError(t, err)

	matched, err := engine.Matches("qual é a capital da frança")
	require.NoError(t, err)
	assert.Empty(t, matched)
}
