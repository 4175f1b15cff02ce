package orchestrator

// Reflection is the self-assessment the orchestrator computes over its
// own aggregated result. Investigate records it in the result's metadata;
// it does not run AdaptStrategy on the outcome.
type Reflection struct {
	QualityScore float64  `json:"quality_score"`
	Issues       []string `json:"issues"`
}

// Reflect computes a quality score: base 1.0 minus 0.2 per detected
// issue; +0.1 if confidence > 0.8; +0.1 if explanation length > 100
// characters; clamped to [0,1]. Issues considered: no findings,
// confidence < 0.5, explanation < 50 characters, sources < 2.
func Reflect(findings []map[string]interface{}, sources []string, confidence float64, explanation string) Reflection {
	var issues []string

	if len(findings) == 0 {
		issues = append(issues, "no findings")
	}
	if confidence < 0.5 {
		issues = append(issues, "low confidence")
	}
	if len(explanation) < 50 {
		issues = append(issues, "explanation too short")
	}
	if len(sources) < 2 {
		issues = append(issues, "insufficient sources")
	}

	score := 1.0 - 0.2*float64(len(issues))
	if confidence > 0.8 {
		score += 0.1
	}
	if len(explanation) > 100 {
		score += 0.1
	}

	return Reflection{
		QualityScore: clamp01(score),
		Issues:       issues,
	}
}
