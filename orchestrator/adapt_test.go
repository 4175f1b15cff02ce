package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapt_SufficientResultsTriggerNoChanges(t *testing.T) {
	in := AdaptInput{FindingsCount: 5, Confidence: 0.9, SourcesCount: 3}
	criteria := QualityCriteria{MinConfidence: 0.7, MinFindings: 1, MinSources: 2}

	result := Adapt(in, criteria)
	assert.Empty(t, result.Changes)
	assert.Empty(t, result.NewSteps)
}

func TestAdapt_TooFewFindingsAddsHighSensitivityDetectorStep(t *testing.T) {
	in := AdaptInput{FindingsCount: 0, Confidence: 0.9, SourcesCount: 3}
	criteria := QualityCriteria{MinConfidence: 0.7, MinFindings: 1, MinSources: 2}

	result := Adapt(in, criteria)
	require.Len(t, result.NewSteps, 1)
	assert.Equal(t, "anomaly_detector", result.NewSteps[0].AgentName)
	assert.Equal(t, "high", result.NewSteps[0].Parameters["sensitivity"])
}

func TestAdapt_LowConfidenceAddsPatternAnalystDependingOnDetector(t *testing.T) {
	in := AdaptInput{FindingsCount: 5, Confidence: 0.1, SourcesCount: 3}
	criteria := QualityCriteria{MinConfidence: 0.7, MinFindings: 1, MinSources: 2}

	result := Adapt(in, criteria)
	require.Len(t, result.NewSteps, 1)
	assert.Equal(t, "pattern_analyst", result.NewSteps[0].AgentName)
	assert.Equal(t, []string{"anomaly_detector"}, result.NewSteps[0].DependsOn)
}

func TestAdapt_TooFewSourcesAddsRegionalAnalyst(t *testing.T) {
	in := AdaptInput{FindingsCount: 5, Confidence: 0.9, SourcesCount: 0}
	criteria := QualityCriteria{MinConfidence: 0.7, MinFindings: 1, MinSources: 2}

	result := Adapt(in, criteria)
	require.Len(t, result.NewSteps, 1)
	assert.Equal(t, "regional_analyst", result.NewSteps[0].AgentName)
	assert.Equal(t, "analyze_region", result.NewSteps[0].Action)
}

func TestAdapt_HighAnomalyRateAddsPolicyAnalyst(t *testing.T) {
	in := AdaptInput{FindingsCount: 5, Confidence: 0.9, SourcesCount: 3, AnomalyRate: 0.5}
	criteria := QualityCriteria{MinConfidence: 0.7, MinFindings: 1, MinSources: 2}

	result := Adapt(in, criteria)
	require.Len(t, result.NewSteps, 1)
	assert.Equal(t, "policy_analyst", result.NewSteps[0].AgentName)
}

func TestAdapt_HighGeographicConcentrationAddsInequalityAnalysis(t *testing.T) {
	in := AdaptInput{FindingsCount: 5, Confidence: 0.9, SourcesCount: 3, GeographicConcentration: 0.9}
	criteria := QualityCriteria{MinConfidence: 0.7, MinFindings: 1, MinSources: 2}

	result := Adapt(in, criteria)
	require.Len(t, result.NewSteps, 1)
	assert.Equal(t, "regional_analyst", result.NewSteps[0].AgentName)
	assert.Equal(t, "analyze_inequality", result.NewSteps[0].Action)
}

func TestAdapt_MultipleDeficienciesStackAllCorrespondingSteps(t *testing.T) {
	in := AdaptInput{FindingsCount: 0, Confidence: 0.1, SourcesCount: 0, AnomalyRate: 0.9, GeographicConcentration: 0.9}
	criteria := QualityCriteria{MinConfidence: 0.7, MinFindings: 1, MinSources: 2}

	result := Adapt(in, criteria)
	assert.Len(t, result.NewSteps, 5)
	assert.Len(t, result.Changes, 5)
}

func TestMergePlan_SkipsDuplicateAgentNames(t *testing.T) {
	plan := &Plan{Steps: []Step{{AgentName: "anomaly_detector"}}}
	plan.RequiredAgents = distinctAgents(plan.Steps)

	MergePlan(plan, []Step{
		{AgentName: "anomaly_detector", Action: "would_be_duplicate"},
		{AgentName: "regional_analyst"},
	})

	require.Len(t, plan.Steps, 2)
	assert.Equal(t, "anomaly_detector", plan.Steps[0].AgentName)
	assert.Equal(t, "regional_analyst", plan.Steps[1].AgentName)
	assert.ElementsMatch(t, []string{"anomaly_detector", "regional_analyst"}, plan.RequiredAgents)
}

func TestMergePlan_RefreshesEstimatedTimeAfterMerge(t *testing.T) {
	plan := &Plan{Steps: []Step{{AgentName: "anomaly_detector"}}}
	plan.RequiredAgents = distinctAgents(plan.Steps)
	plan.EstimatedTimeSeconds = estimatedTimeSeconds(1)

	MergePlan(plan, []Step{{AgentName: "pattern_analyst"}})

	assert.Equal(t, estimatedTimeSeconds(2), plan.EstimatedTimeSeconds)
}
