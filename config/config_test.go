package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_PassesValidation(t *testing.T) {
	c := DefaultConfig()
	assert.NoError(t, c.Validate())
}

func TestNewConfig_AppliesOptionsAfterDefaults(t *testing.T) {
	c, err := NewConfig(WithMaxConcurrent(20), WithQueueWorkers(8))
	require.NoError(t, err)
	assert.Equal(t, 20, c.Executor.MaxConcurrent)
	assert.Equal(t, 8, c.Queue.MaxWorkers)
}

func TestNewConfig_RejectsInvalidResultFromValidate(t *testing.T) {
	_, err := NewConfig(WithMaxConcurrent(0))
	assert.Error(t, err)
}

func TestWithAlertEmails_EnablesEmailAlertingWhenNonEmpty(t *testing.T) {
	c, err := NewConfig(WithAlertEmails([]string{"ops@example.org"}))
	require.NoError(t, err)
	assert.True(t, c.Alert.EmailEnabled)
	assert.Equal(t, []string{"ops@example.org"}, c.Alert.AlertEmails)
}

func TestWithQueueTimeLimits_SetsBothBounds(t *testing.T) {
	c, err := NewConfig(WithQueueTimeLimits(10*time.Second, 20*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, c.Queue.TaskSoftTimeLimit)
	assert.Equal(t, 20*time.Second, c.Queue.TaskHardTimeLimit)
}

func TestWithTelemetry_EnablesAndSetsEndpoint(t *testing.T) {
	c, err := NewConfig(WithTelemetry("sentinela-test", "collector:4317"))
	require.NoError(t, err)
	assert.True(t, c.Telemetry.Enabled)
	assert.Equal(t, "sentinela-test", c.Telemetry.ServiceName)
	assert.Equal(t, "collector:4317", c.Telemetry.OTLPEndpoint)
}

func TestLoadFromEnv_OverridesDefaultsWithEnvVars(t *testing.T) {
	t.Setenv("SENTINELA_EXECUTOR_MAX_CONCURRENT", "42")
	t.Setenv("SENTINELA_MONITOR_PRIORITY_ORGS", "org-a, org-b,  org-c")

	c := DefaultConfig()
	require.NoError(t, c.LoadFromEnv())

	assert.Equal(t, 42, c.Executor.MaxConcurrent)
	assert.Equal(t, []string{"org-a", "org-b", "org-c"}, c.Monitor.PriorityOrganizations)
}

func TestLoadFromEnv_MalformedIntLeavesDefaultUnchanged(t *testing.T) {
	t.Setenv("SENTINELA_EXECUTOR_MAX_CONCURRENT", "not-a-number")

	c := DefaultConfig()
	require.NoError(t, c.LoadFromEnv())
	assert.Equal(t, 10, c.Executor.MaxConcurrent)
}

func TestLoadFromEnv_RedisURLPrefersSentinelaPrefixOverBareAlias(t *testing.T) {
	t.Setenv("SENTINELA_REDIS_URL", "redis://sentinela:6379/0")
	t.Setenv("REDIS_URL", "redis://bare:6379/0")

	c := DefaultConfig()
	require.NoError(t, c.LoadFromEnv())
	assert.Equal(t, "redis://sentinela:6379/0", c.Redis.URL)
}

func TestLoadFromEnv_RedisURLFallsBackToBareAliasWhenPrefixedAbsent(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://bare:6379/0")

	c := DefaultConfig()
	require.NoError(t, c.LoadFromEnv())
	assert.Equal(t, "redis://bare:6379/0", c.Redis.URL)
}

func TestValidate_RejectsNonPositiveExecutorConcurrency(t *testing.T) {
	c := DefaultConfig()
	c.Executor.MaxConcurrent = 0
	assert.Error(t, c.Validate())
}

func TestValidate_RejectsHardLimitBelowSoftLimit(t *testing.T) {
	c := DefaultConfig()
	c.Queue.TaskSoftTimeLimit = 10 * time.Second
	c.Queue.TaskHardTimeLimit = 5 * time.Second
	assert.Error(t, c.Validate())
}

func TestValidate_RejectsEmailEnabledWithoutRecipients(t *testing.T) {
	c := DefaultConfig()
	c.Alert.EmailEnabled = true
	c.Alert.AlertEmails = nil
	assert.Error(t, c.Validate())
}

func TestValidate_RejectsUnknownLogFormat(t *testing.T) {
	c := DefaultConfig()
	c.Logging.Format = "xml"
	assert.Error(t, c.Validate())
}

func TestLoadFromFile_MissingFileIsNotAnError(t *testing.T) {
	c := DefaultConfig()
	assert.NoError(t, c.LoadFromFile("/nonexistent/path/sentinela.yaml"))
}
