package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveSeverity_Thresholds(t *testing.T) {
	assert.Equal(t, SeverityCritical, DeriveSeverity(0.85))
	assert.Equal(t, SeverityCritical, DeriveSeverity(1.0))
	assert.Equal(t, SeverityHigh, DeriveSeverity(0.7))
	assert.Equal(t, SeverityHigh, DeriveSeverity(0.84))
	assert.Equal(t, SeverityMedium, DeriveSeverity(0.5))
	assert.Equal(t, SeverityMedium, DeriveSeverity(0.69))
	assert.Equal(t, SeverityLow, DeriveSeverity(0.49))
	assert.Equal(t, SeverityLow, DeriveSeverity(0))
}

func TestSeverityColor_UnknownFallsBackToGrey(t *testing.T) {
	assert.Equal(t, "#6c757d", SeverityColor(Severity("unrecognized")))
	assert.Equal(t, "#dc3545", SeverityColor(SeverityCritical))
}
