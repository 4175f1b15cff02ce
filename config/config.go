// Package config assembles the engine's configuration through three
// layers of increasing priority: struct-tag defaults, environment
// variables, and functional options applied last.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sentinela-labs/sentinela/logging"
)

// Config holds every subsystem's configuration.
type Config struct {
	Executor  ExecutorConfig  `json:"executor"`
	Queue     QueueConfig     `json:"queue"`
	Monitor   MonitorConfig   `json:"monitor"`
	Alert     AlertConfig     `json:"alert"`
	RateLimit RateLimitConfig `json:"rate_limit"`

	Redis     RedisConfig     `json:"redis"`
	Postgres  PostgresConfig  `json:"postgres"`
	Telemetry TelemetryConfig `json:"telemetry"`
	Logging   LoggingConfig   `json:"logging"`

	logger logging.Logger
}

// ExecutorConfig configures the Parallel Task Executor.
type ExecutorConfig struct {
	MaxConcurrent         int           `json:"max_concurrent" env:"SENTINELA_EXECUTOR_MAX_CONCURRENT" default:"10"`
	DefaultTimeoutSeconds int           `json:"default_timeout_seconds" env:"SENTINELA_EXECUTOR_DEFAULT_TIMEOUT_SECONDS" default:"30"`
	EnablePooling         bool          `json:"enable_pooling" env:"SENTINELA_EXECUTOR_ENABLE_POOLING" default:"true"`
	RetryDelay            time.Duration `json:"retry_delay" env:"SENTINELA_EXECUTOR_RETRY_DELAY" default:"1s"`
}

// QueueConfig configures the Priority Task Queue & Worker Pool.
type QueueConfig struct {
	MaxWorkers             int           `json:"max_workers" env:"SENTINELA_QUEUE_MAX_WORKERS" default:"5"`
	TaskSoftTimeLimit      time.Duration `json:"task_soft_time_limit" env:"SENTINELA_QUEUE_TASK_SOFT_TIME_LIMIT" default:"300s"`
	TaskHardTimeLimit      time.Duration `json:"task_hard_time_limit" env:"SENTINELA_QUEUE_TASK_HARD_TIME_LIMIT" default:"360s"`
	ResultRetentionSeconds int           `json:"result_retention_seconds" env:"SENTINELA_QUEUE_RESULT_RETENTION_SECONDS" default:"86400"`
	PollInterval           time.Duration `json:"poll_interval" env:"SENTINELA_QUEUE_POLL_INTERVAL" default:"500ms"`
}

// MonitorConfig configures the Auto-Investigation Monitor.
type MonitorConfig struct {
	ValueThreshold        float64       `json:"value_threshold" env:"SENTINELA_MONITOR_VALUE_THRESHOLD" default:"100000"`
	DailyContractLimit    int           `json:"daily_contract_limit" env:"SENTINELA_MONITOR_DAILY_CONTRACT_LIMIT" default:"50"`
	LookbackHoursDefault  int           `json:"lookback_hours_default" env:"SENTINELA_MONITOR_LOOKBACK_HOURS_DEFAULT" default:"24"`
	MonthsBackDefault     int           `json:"months_back_default" env:"SENTINELA_MONITOR_MONTHS_BACK_DEFAULT" default:"3"`
	BatchSize             int           `json:"batch_size" env:"SENTINELA_MONITOR_BATCH_SIZE" default:"20"`
	PriorityOrganizations []string      `json:"priority_organizations" env:"SENTINELA_MONITOR_PRIORITY_ORGS"`
	SystemUserID          string        `json:"system_user_id" env:"SENTINELA_MONITOR_SYSTEM_USER_ID" default:"system-auto-monitor"`
	ScanInterval          time.Duration `json:"scan_interval" env:"SENTINELA_MONITOR_SCAN_INTERVAL" default:"1h"`
}

// AlertConfig configures the Alert Fanout.
type AlertConfig struct {
	WebhookURLs  []string `json:"webhook_urls" env:"SENTINELA_ALERT_WEBHOOK_URLS"`
	AlertEmails  []string `json:"alert_emails" env:"SENTINELA_ALERT_EMAILS"`
	EmailEnabled bool     `json:"email_enabled" env:"SENTINELA_ALERT_EMAIL_ENABLED" default:"false"`
}

// RateLimitConfig configures outbound call pacing.
type RateLimitConfig struct {
	TransparencyRequestsPerMinute int `json:"transparency_requests_per_minute" env:"SENTINELA_RATE_LIMIT_TRANSPARENCY_RPM" default:"60"`
}

// RedisConfig configures the shared Redis connection (queue durability,
// plan-cache warm set).
type RedisConfig struct {
	URL      string `json:"url" env:"SENTINELA_REDIS_URL,REDIS_URL" default:"redis://localhost:6379/0"`
	PoolSize int    `json:"pool_size" env:"SENTINELA_REDIS_POOL_SIZE" default:"10"`
}

// PostgresConfig configures the Anomaly & Investigation Store.
type PostgresConfig struct {
	DSN             string        `json:"dsn" env:"SENTINELA_POSTGRES_DSN,DATABASE_URL"`
	MaxConns        int32         `json:"max_conns" env:"SENTINELA_POSTGRES_MAX_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" env:"SENTINELA_POSTGRES_CONN_MAX_LIFETIME" default:"30m"`
}

// TelemetryConfig configures tracing/metrics export.
type TelemetryConfig struct {
	Enabled        bool   `json:"enabled" env:"SENTINELA_TELEMETRY_ENABLED" default:"false"`
	ServiceName    string `json:"service_name" env:"SENTINELA_TELEMETRY_SERVICE_NAME" default:"sentinela"`
	OTLPEndpoint   string `json:"otlp_endpoint" env:"SENTINELA_TELEMETRY_OTLP_ENDPOINT"`
	PrometheusPort int    `json:"prometheus_port" env:"SENTINELA_TELEMETRY_PROMETHEUS_PORT" default:"9090"`
}

// LoggingConfig configures the production logger.
type LoggingConfig struct {
	Format string `json:"format" env:"SENTINELA_LOG_FORMAT" default:"json"`
	Level  string `json:"level" env:"SENTINELA_LOG_LEVEL" default:"info"`
}

// Option mutates a Config during NewConfig, applied after defaults and
// environment variables — the highest-priority layer.
type Option func(*Config) error

// DefaultConfig returns a Config populated with every struct-tag default.
func DefaultConfig() *Config {
	return &Config{
		Executor: ExecutorConfig{
			MaxConcurrent:         10,
			DefaultTimeoutSeconds: 30,
			EnablePooling:         true,
			RetryDelay:            time.Second,
		},
		Queue: QueueConfig{
			MaxWorkers:             5,
			TaskSoftTimeLimit:      300 * time.Second,
			TaskHardTimeLimit:      360 * time.Second,
			ResultRetentionSeconds: 86400,
			PollInterval:           500 * time.Millisecond,
		},
		Monitor: MonitorConfig{
			ValueThreshold:       100000,
			DailyContractLimit:   50,
			LookbackHoursDefault: 24,
			MonthsBackDefault:    3,
			BatchSize:            20,
			SystemUserID:         "system-auto-monitor",
			ScanInterval:         time.Hour,
		},
		Alert: AlertConfig{
			EmailEnabled: false,
		},
		RateLimit: RateLimitConfig{
			TransparencyRequestsPerMinute: 60,
		},
		Redis: RedisConfig{
			URL:      "redis://localhost:6379/0",
			PoolSize: 10,
		},
		Postgres: PostgresConfig{
			MaxConns:        10,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			Enabled:        false,
			ServiceName:    "sentinela",
			PrometheusPort: 9090,
		},
		Logging: LoggingConfig{
			Format: "json",
			Level:  "info",
		},
	}
}

// NewConfig assembles configuration in priority order: defaults, then
// environment variables, then functional options.
func NewConfig(opts ...Option) (*Config, error) {
	c := DefaultConfig()

	if err := c.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("applying config option: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return c, nil
}

// WithLogger attaches a logger used only for configuration-loading
// diagnostics (not stored for later use by other subsystems).
func (c *Config) WithLogger(logger logging.Logger) {
	c.logger = logger
}

func (c *Config) debug(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, fields)
	}
}

// LoadFromEnv overlays environment variables onto the current values.
// Each field is checked explicitly rather than via reflection, matching
// the teacher's config idiom: explicit checks keep parse-error handling
// and per-field fallback aliases (e.g. REDIS_URL) legible at the call
// site.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("SENTINELA_EXECUTOR_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Executor.MaxConcurrent = n
		}
	}
	if v := os.Getenv("SENTINELA_EXECUTOR_DEFAULT_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Executor.DefaultTimeoutSeconds = n
		}
	}
	if v := os.Getenv("SENTINELA_EXECUTOR_ENABLE_POOLING"); v != "" {
		c.Executor.EnablePooling = parseBool(v)
	}
	if v := os.Getenv("SENTINELA_EXECUTOR_RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Executor.RetryDelay = d
		}
	}

	if v := os.Getenv("SENTINELA_QUEUE_MAX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Queue.MaxWorkers = n
		}
	}
	if v := os.Getenv("SENTINELA_QUEUE_TASK_SOFT_TIME_LIMIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Queue.TaskSoftTimeLimit = d
		}
	}
	if v := os.Getenv("SENTINELA_QUEUE_TASK_HARD_TIME_LIMIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Queue.TaskHardTimeLimit = d
		}
	}
	if v := os.Getenv("SENTINELA_QUEUE_RESULT_RETENTION_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Queue.ResultRetentionSeconds = n
		}
	}
	if v := os.Getenv("SENTINELA_QUEUE_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Queue.PollInterval = d
		}
	}

	if v := os.Getenv("SENTINELA_MONITOR_VALUE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Monitor.ValueThreshold = f
		}
	}
	if v := os.Getenv("SENTINELA_MONITOR_DAILY_CONTRACT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Monitor.DailyContractLimit = n
		}
	}
	if v := os.Getenv("SENTINELA_MONITOR_LOOKBACK_HOURS_DEFAULT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Monitor.LookbackHoursDefault = n
		}
	}
	if v := os.Getenv("SENTINELA_MONITOR_MONTHS_BACK_DEFAULT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Monitor.MonthsBackDefault = n
		}
	}
	if v := os.Getenv("SENTINELA_MONITOR_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Monitor.BatchSize = n
		}
	}
	if v := os.Getenv("SENTINELA_MONITOR_PRIORITY_ORGS"); v != "" {
		c.Monitor.PriorityOrganizations = parseStringList(v)
	}
	if v := os.Getenv("SENTINELA_MONITOR_SYSTEM_USER_ID"); v != "" {
		c.Monitor.SystemUserID = v
	}
	if v := os.Getenv("SENTINELA_MONITOR_SCAN_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Monitor.ScanInterval = d
		}
	}

	if v := os.Getenv("SENTINELA_ALERT_WEBHOOK_URLS"); v != "" {
		c.Alert.WebhookURLs = parseStringList(v)
	}
	if v := os.Getenv("SENTINELA_ALERT_EMAILS"); v != "" {
		c.Alert.AlertEmails = parseStringList(v)
	}
	if v := os.Getenv("SENTINELA_ALERT_EMAIL_ENABLED"); v != "" {
		c.Alert.EmailEnabled = parseBool(v)
	}

	if v := os.Getenv("SENTINELA_RATE_LIMIT_TRANSPARENCY_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimit.TransparencyRequestsPerMinute = n
		}
	}

	if v := os.Getenv("SENTINELA_REDIS_URL"); v != "" {
		c.Redis.URL = v
		c.debug("configuration loaded", map[string]interface{}{"setting": "redis_url", "source": "SENTINELA_REDIS_URL"})
	} else if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
		c.debug("configuration loaded", map[string]interface{}{"setting": "redis_url", "source": "REDIS_URL"})
	}
	if v := os.Getenv("SENTINELA_REDIS_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.PoolSize = n
		}
	}

	if v := os.Getenv("SENTINELA_POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	} else if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("SENTINELA_POSTGRES_MAX_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Postgres.MaxConns = int32(n)
		}
	}
	if v := os.Getenv("SENTINELA_POSTGRES_CONN_MAX_LIFETIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Postgres.ConnMaxLifetime = d
		}
	}

	if v := os.Getenv("SENTINELA_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = parseBool(v)
	}
	if v := os.Getenv("SENTINELA_TELEMETRY_SERVICE_NAME"); v != "" {
		c.Telemetry.ServiceName = v
	}
	if v := os.Getenv("SENTINELA_TELEMETRY_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.OTLPEndpoint = v
	}
	if v := os.Getenv("SENTINELA_TELEMETRY_PROMETHEUS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Telemetry.PrometheusPort = n
		}
	}

	if v := os.Getenv("SENTINELA_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("SENTINELA_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return nil
}

// Validate checks invariants that functional options and environment
// variables cannot enforce structurally.
func (c *Config) Validate() error {
	if c.Executor.MaxConcurrent <= 0 {
		return fmt.Errorf("executor.max_concurrent must be positive, got %d", c.Executor.MaxConcurrent)
	}
	if c.Queue.MaxWorkers <= 0 {
		return fmt.Errorf("queue.max_workers must be positive, got %d", c.Queue.MaxWorkers)
	}
	if c.Queue.TaskHardTimeLimit < c.Queue.TaskSoftTimeLimit {
		return fmt.Errorf("queue.task_hard_time_limit (%s) must be >= task_soft_time_limit (%s)",
			c.Queue.TaskHardTimeLimit, c.Queue.TaskSoftTimeLimit)
	}
	if c.Monitor.ValueThreshold < 0 {
		return fmt.Errorf("monitor.value_threshold must be non-negative, got %f", c.Monitor.ValueThreshold)
	}
	if c.Alert.EmailEnabled && len(c.Alert.AlertEmails) == 0 {
		return fmt.Errorf("alert.email_enabled is true but alert.alert_emails is empty")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	return nil
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

func parseStringList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
