package orchestrator

import "github.com/sentinela-labs/sentinela/executor"

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Confidence computes confidence = clamp01(0.3*f + 0.2*s + 0.5*a), where:
//   f = count of findings, capped linearly to 1.0 at 10
//   s = distinct sources, capped at 1.0 at 3
//   a = mean of anomaly_score across findings (0 if none)
func Confidence(findings []map[string]interface{}, sources []string) float64 {
	if len(findings) == 0 {
		return 0
	}

	f := clamp01(float64(len(findings)) / 10.0)
	s := clamp01(float64(len(distinctStrings(sources))) / 3.0)

	var a float64
	if len(findings) > 0 {
		var sum float64
		count := 0
		for _, finding := range findings {
			if score, ok := finding["anomaly_score"].(float64); ok {
				sum += score
				count++
			}
		}
		if count > 0 {
			a = sum / float64(count)
		}
	}

	return clamp01(0.3*f + 0.2*s + 0.5*a)
}

func distinctStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// MergeFindingsAndSources folds the findings/sources fields out of
// completed executor results, ignoring (but the caller should log)
// failures.
func MergeFindingsAndSources(results []executor.Result) (findings []map[string]interface{}, sources []string) {
	for _, r := range results {
		if !r.Success || r.Result == nil {
			continue
		}
		if fs, ok := r.Result["findings"].([]map[string]interface{}); ok {
			findings = append(findings, fs...)
		} else if fs, ok := r.Result["findings"].([]interface{}); ok {
			for _, f := range fs {
				if m, ok := f.(map[string]interface{}); ok {
					findings = append(findings, m)
				}
			}
		}
		if ss, ok := r.Result["sources"].([]string); ok {
			sources = append(sources, ss...)
		} else if ss, ok := r.Result["sources"].([]interface{}); ok {
			for _, s := range ss {
				if str, ok := s.(string); ok {
					sources = append(sources, str)
				}
			}
		}
	}
	return findings, distinctStrings(sources)
}
