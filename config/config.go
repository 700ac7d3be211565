package config

import (
	"time"
)

const (
	DEFAULT_HOST       = "https://emailoctopus.com"
	DEFAULT_API        = "/api/1.5/"
	DEFAULT_RATE_LIMIT = 10.0
	DEFAULT_TIMEOUT    = 60 * time.Second

	DEFAULT_SHEETS_RATE_LIMIT = 1.0
	DEFAULT_KEEP_DAYS         = 365

	DEFAULT_BACKUP_SCHEDULE = "0 2 * * *"
	DEFAULT_PRUNE_SCHEDULE  = "0 3 * * 0"
	DEFAULT_JOB             = "eo-backup"
)

type Config struct {
	Octopus   Octopus   `yaml:"octopus"`
	Google    Google    `yaml:"google"`
	Retention Retention `yaml:"retention"`
	Schedule  Schedule  `yaml:"schedule"`
	Metrics   Metrics   `yaml:"metrics"`
}

// Octopus holds the EmailOctopus API settings. APIKey is the secret token and is
// usually supplied with the EO_API_TOKEN environment variable rather than the file.
type Octopus struct {
	APIKey    string        `yaml:"api-key"`
	Host      string        `yaml:"host"`
	API       string        `yaml:"api"`
	RateLimit float64       `yaml:"rate-limit"`
	Timeout   time.Duration `yaml:"timeout"`
}

type Google struct {
	Credentials string  `yaml:"credentials"`
	Tokens      string  `yaml:"tokens"`
	RateLimit   float64 `yaml:"rate-limit"`
}

type Retention struct {
	KeepDays int `yaml:"keep-days"`
}

type Schedule struct {
	Backup string `yaml:"backup"`
	Prune  string `yaml:"prune"`
}

type Metrics struct {
	Pushgateway string `yaml:"pushgateway"`
	Job         string `yaml:"job"`
}

func NewConfig() *Config {
	c := Config{}

	ApplyDefaults(&c)

	return &c
}

// ApplyDefaults fills in any unset fields.
func ApplyDefaults(c *Config) {
	if c.Octopus.Host == "" {
		c.Octopus.Host = DEFAULT_HOST
	}

	if c.Octopus.API == "" {
		c.Octopus.API = DEFAULT_API
	}

	if c.Octopus.RateLimit == 0 {
		c.Octopus.RateLimit = DEFAULT_RATE_LIMIT
	}

	if c.Octopus.Timeout == 0 {
		c.Octopus.Timeout = DEFAULT_TIMEOUT
	}

	if c.Google.RateLimit == 0 {
		c.Google.RateLimit = DEFAULT_SHEETS_RATE_LIMIT
	}

	if c.Retention.KeepDays == 0 {
		c.Retention.KeepDays = DEFAULT_KEEP_DAYS
	}

	if c.Schedule.Backup == "" {
		c.Schedule.Backup = DEFAULT_BACKUP_SCHEDULE
	}

	if c.Schedule.Prune == "" {
		c.Schedule.Prune = DEFAULT_PRUNE_SCHEDULE
	}

	if c.Metrics.Job == "" {
		c.Metrics.Job = DEFAULT_JOB
	}
}
