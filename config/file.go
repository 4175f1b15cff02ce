package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFromFile overlays a YAML config file onto the current values. It
// sits below environment variables and functional options in priority —
// callers that want a file-based overlay call this before LoadFromEnv.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	c.debug("configuration loaded from file", map[string]interface{}{"path": path})
	return nil
}

// NewConfigFromFile assembles configuration with a YAML file as the
// lowest-priority layer, beneath environment variables and options.
func NewConfigFromFile(path string, opts ...Option) (*Config, error) {
	c := DefaultConfig()

	if err := c.LoadFromFile(path); err != nil {
		return nil, err
	}
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
