package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, l *ProductionLogger, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	l.out = w

	fn()
	require.NoError(t, w.Close())

	var sb strings.Builder
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteString("\n")
	}
	return sb.String()
}

func TestProductionLogger_JSONFormatEncodesLevelAndMessage(t *testing.T) {
	l := NewProductionLogger(FormatJSON, LevelDebug)
	out := capture(t, l, func() {
		l.Info("investigation started", map[string]interface{}{"investigation_id": "inv-1"})
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "investigation started", entry["msg"])
	assert.Equal(t, "inv-1", entry["investigation_id"])
}

func TestProductionLogger_TextFormatWritesKeyValuePairs(t *testing.T) {
	l := NewProductionLogger(FormatText, LevelDebug)
	out := capture(t, l, func() {
		l.Warn("retrying task", map[string]interface{}{"attempt": 2})
	})

	assert.Contains(t, out, "level=warn")
	assert.Contains(t, out, `msg="retrying task"`)
	assert.Contains(t, out, "attempt=2")
}

func TestProductionLogger_BelowMinLevelIsSuppressed(t *testing.T) {
	l := NewProductionLogger(FormatJSON, LevelWarn)
	out := capture(t, l, func() {
		l.Debug("should not appear", nil)
		l.Info("also should not appear", nil)
	})
	assert.Empty(t, out)
}

func TestProductionLogger_WithComponentTagsSubsequentLines(t *testing.T) {
	l := NewProductionLogger(FormatJSON, LevelDebug)
	child := l.WithComponent("orchestrator/plan").(*ProductionLogger)

	out := capture(t, child, func() {
		child.Info("planning", nil)
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &entry))
	assert.Equal(t, "orchestrator/plan", entry["component"])
}

func TestProductionLogger_WithComponentLeavesParentUntagged(t *testing.T) {
	l := NewProductionLogger(FormatJSON, LevelDebug)
	_ = l.WithComponent("queue/worker")

	out := capture(t, l, func() {
		l.Info("unaffected by child tagging", nil)
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &entry))
	_, hasComponent := entry["component"]
	assert.False(t, hasComponent)
}

func TestProductionLogger_ContextVariantsDelegateToSameLevelGating(t *testing.T) {
	l := NewProductionLogger(FormatJSON, LevelError)
	out := capture(t, l, func() {
		l.WarnWithContext(context.Background(), "should be suppressed", nil)
	})
	assert.Empty(t, out)
}

func TestProductionLogger_ErrorEncodeFallbackNeverPanics(t *testing.T) {
	l := NewProductionLogger(FormatJSON, LevelDebug)
	out := capture(t, l, func() {
		l.Info("unsupported field type", map[string]interface{}{"fn": func() {}})
	})
	assert.Contains(t, out, "log encode failed")
}
