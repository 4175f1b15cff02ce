package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sentinela-labs/sentinela/executor"
)

func TestConfidence_NoFindingsOrSourcesIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Confidence(nil, nil))
}

func TestConfidence_FindingsCountContributesUpToCapAtTen(t *testing.T) {
	findings := make([]map[string]interface{}, 10)
	for i := range findings {
		findings[i] = map[string]interface{}{}
	}
	// f=1.0 (capped), s=0, a=0 => 0.3
	assert.InDelta(t, 0.3, Confidence(findings, nil), 0.0001)
}

func TestConfidence_EmptyFindingsIsAlwaysZeroRegardlessOfSources(t *testing.T) {
	sources := []string{"a", "a", "b", "b", "c", "c"}
	assert.Equal(t, 0.0, Confidence(nil, sources))
	assert.Equal(t, 0.0, Confidence([]map[string]interface{}{}, sources))
}

func TestConfidence_SourcesAreDeduplicatedBeforeCapping(t *testing.T) {
	// 3 distinct sources out of 6 entries => s=1.0 capped
	sources := []string{"a", "a", "b", "b", "c", "c"}
	findings := []map[string]interface{}{{}}
	// f = 1/10 = 0.1 => 0.3*0.1=0.03, s=1.0 => 0.2*1=0.2, a=0 => total 0.23
	assert.InDelta(t, 0.23, Confidence(findings, sources), 0.0001)
}

func TestConfidence_AnomalyScoreDominatesWeighting(t *testing.T) {
	findings := []map[string]interface{}{
		{"anomaly_score": 1.0},
	}
	// f = 1/10 = 0.1 => 0.3*0.1=0.03, a=1.0 => 0.5*1=0.5, total 0.53
	assert.InDelta(t, 0.53, Confidence(findings, nil), 0.0001)
}

func TestConfidence_ResultNeverExceedsOne(t *testing.T) {
	findings := make([]map[string]interface{}, 20)
	for i := range findings {
		findings[i] = map[string]interface{}{"anomaly_score": 1.0}
	}
	sources := []string{"a", "b", "c", "d"}
	assert.Equal(t, 1.0, Confidence(findings, sources))
}

func TestMergeFindingsAndSources_FoldsOnlySuccessfulResultsAndDedupsSources(t *testing.T) {
	results := []executor.Result{
		{
			Success: true,
			Result: map[string]interface{}{
				"findings": []map[string]interface{}{{"id": "f1"}},
				"sources":  []string{"portal-transparencia", "portal-transparencia"},
			},
		},
		{
			Success: false,
			Result: map[string]interface{}{
				"findings": []map[string]interface{}{{"id": "should-be-ignored"}},
			},
		},
	}

	findings, sources := MergeFindingsAndSources(results)
	assert.Len(t, findings, 1)
	assert.Equal(t, []string{"portal-transparencia"}, sources)
}

func TestMergeFindingsAndSources_HandlesInterfaceSlicePayloadShape(t *testing.T) {
	results := []executor.Result{
		{
			Success: true,
			Result: map[string]interface{}{
				"findings": []interface{}{
					map[string]interface{}{"id": "f1"},
					"not-a-map-should-be-skipped",
				},
				"sources": []interface{}{"tce-sp", 42},
			},
		},
	}

	findings, sources := MergeFindingsAndSources(results)
	require := assert.New(t)
	require.Len(findings, 1)
	require.Equal([]string{"tce-sp"}, sources)
}

func TestMergeFindingsAndSources_NilResultIsSkipped(t *testing.T) {
	results := []executor.Result{
		{Success: true, Result: nil},
	}
	findings, sources := MergeFindingsAndSources(results)
	assert.Empty(t, findings)
	assert.Empty(t, sources)
}
