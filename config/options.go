package config

import "time"

// WithMaxConcurrent sets the executor's concurrency cap.
func WithMaxConcurrent(n int) Option {
	return func(c *Config) error {
		c.Executor.MaxConcurrent = n
		return nil
	}
}

// WithExecutorTimeout sets the default per-task executor timeout.
func WithExecutorTimeout(seconds int) Option {
	return func(c *Config) error {
		c.Executor.DefaultTimeoutSeconds = seconds
		return nil
	}
}

// WithQueueWorkers sets the worker pool size.
func WithQueueWorkers(n int) Option {
	return func(c *Config) error {
		c.Queue.MaxWorkers = n
		return nil
	}
}

// WithQueueTimeLimits sets the soft/hard per-task time limits.
func WithQueueTimeLimits(soft, hard time.Duration) Option {
	return func(c *Config) error {
		c.Queue.TaskSoftTimeLimit = soft
		c.Queue.TaskHardTimeLimit = hard
		return nil
	}
}

// WithMonitorThreshold sets the pre-screen value threshold.
func WithMonitorThreshold(threshold float64) Option {
	return func(c *Config) error {
		c.Monitor.ValueThreshold = threshold
		return nil
	}
}

// WithMonitorScanInterval sets Monitor.ScanInterval. The scheduler does
// not read this field; job cadences come from queue.DefaultJobs.
func WithMonitorScanInterval(d time.Duration) Option {
	return func(c *Config) error {
		c.Monitor.ScanInterval = d
		return nil
	}
}

// WithPriorityOrganizations seeds the list of organizations scanned by the
// priority-organization scan; each one's fetch is capped at
// DailyContractLimit divided by the number of organizations.
func WithPriorityOrganizations(orgs []string) Option {
	return func(c *Config) error {
		c.Monitor.PriorityOrganizations = orgs
		return nil
	}
}

// WithAlertWebhooks sets the webhook destinations for the Alert Fanout.
func WithAlertWebhooks(urls []string) Option {
	return func(c *Config) error {
		c.Alert.WebhookURLs = urls
		return nil
	}
}

// WithAlertEmails enables the email destination with the given recipients.
func WithAlertEmails(emails []string) Option {
	return func(c *Config) error {
		c.Alert.AlertEmails = emails
		c.Alert.EmailEnabled = len(emails) > 0
		return nil
	}
}

// WithRedisURL overrides the shared Redis connection string.
func WithRedisURL(url string) Option {
	return func(c *Config) error {
		c.Redis.URL = url
		return nil
	}
}

// WithPostgresDSN overrides the store's Postgres connection string.
func WithPostgresDSN(dsn string) Option {
	return func(c *Config) error {
		c.Postgres.DSN = dsn
		return nil
	}
}

// WithTelemetry enables tracing/metrics export to the given OTLP endpoint.
func WithTelemetry(serviceName, otlpEndpoint string) Option {
	return func(c *Config) error {
		c.Telemetry.Enabled = true
		c.Telemetry.ServiceName = serviceName
		c.Telemetry.OTLPEndpoint = otlpEndpoint
		return nil
	}
}

// WithLogFormat overrides the production logger's output format.
func WithLogFormat(format string) Option {
	return func(c *Config) error {
		c.Logging.Format = format
		return nil
	}
}

// WithTransparencyRateLimit sets the outbound pacing for the Transparency
// Data Client.
func WithTransparencyRateLimit(requestsPerMinute int) Option {
	return func(c *Config) error {
		c.RateLimit.TransparencyRequestsPerMinute = requestsPerMinute
		return nil
	}
}
