package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the configuration file.
const (
	ENV_API_TOKEN   = "EO_API_TOKEN"
	ENV_HOST        = "EO_HOST"
	ENV_KEEP_DAYS   = "EO_KEEP_DAYS"
	ENV_PUSHGATEWAY = "EO_PUSHGATEWAY"
)

// Load reads the YAML configuration file at path, applies defaults and then any
// environment variable overrides. A missing file is not an error - the defaults
// and environment are sufficient to run a backup.
func Load(path string) (*Config, error) {
	c := Config{}

	if strings.TrimSpace(path) != "" {
		bytes, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read configuration file %q (%w)", path, err)
		} else if err == nil {
			if err := yaml.Unmarshal(bytes, &c); err != nil {
				return nil, fmt.Errorf("failed to parse configuration file %q (%w)", path, err)
			}
		}
	}

	ApplyDefaults(&c)

	if err := applyEnvOverrides(&c); err != nil {
		return nil, err
	}

	if err := Validate(&c); err != nil {
		return nil, fmt.Errorf("invalid configuration (%w)", err)
	}

	return &c, nil
}

// Validate checks the configuration for values that cannot work. A missing API key
// is deliberately not checked here: the backup command handles it as a no-op.
func Validate(c *Config) error {
	if c.Retention.KeepDays < 1 {
		return fmt.Errorf("retention keep-days must be at least 1 (%v)", c.Retention.KeepDays)
	}

	if c.Octopus.RateLimit < 0 {
		return fmt.Errorf("octopus rate-limit must not be negative (%v)", c.Octopus.RateLimit)
	}

	if c.Google.RateLimit < 0 {
		return fmt.Errorf("google rate-limit must not be negative (%v)", c.Google.RateLimit)
	}

	if !strings.HasPrefix(c.Octopus.Host, "http://") && !strings.HasPrefix(c.Octopus.Host, "https://") {
		return fmt.Errorf("invalid octopus host %q", c.Octopus.Host)
	}

	return nil
}

func applyEnvOverrides(c *Config) error {
	if v := strings.TrimSpace(os.Getenv(ENV_API_TOKEN)); v != "" {
		c.Octopus.APIKey = v
	}

	if v := strings.TrimSpace(os.Getenv(ENV_HOST)); v != "" {
		c.Octopus.Host = strings.TrimSuffix(v, "/")
	}

	if v := strings.TrimSpace(os.Getenv(ENV_KEEP_DAYS)); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %v '%v' (%w)", ENV_KEEP_DAYS, v, err)
		}

		c.Retention.KeepDays = days
	}

	if v := strings.TrimSpace(os.Getenv(ENV_PUSHGATEWAY)); v != "" {
		c.Metrics.Pushgateway = v
	}

	return nil
}
