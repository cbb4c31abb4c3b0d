// Package config loads and validates the application configuration
// from config file, environment variables, and defaults via Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	DefaultTimeout          = 30 * time.Second
	DefaultDelay            = time.Second
	DefaultMaxAttempts      = 3
	DefaultInitialDelay     = 500 * time.Millisecond
	DefaultMaxDelay         = 30 * time.Second
	DefaultMultiplier       = 2.0
	DefaultFailureThreshold = 3
	DefaultCooldown         = 2 * time.Minute
	DefaultWindow           = 5 * time.Minute
	DefaultOutputDir        = "data"
	DefaultWorkers          = 1
)

// Common validation errors.
var (
	ErrMissingBaseURL     = errors.New("source base_url is required")
	ErrInvalidTimeout     = errors.New("source timeout must be positive")
	ErrInvalidMaxAttempts = errors.New("retry max_attempts must be at least 1")
	ErrInvalidThreshold   = errors.New("outage failure_threshold must be at least 1")
	ErrInvalidCooldown    = errors.New("outage cooldown must be positive")
	ErrMissingOutputDir   = errors.New("output dir is required")
	ErrInvalidWorkers     = errors.New("collector workers must be at least 1")
)

// Config is the full application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Source    SourceConfig    `mapstructure:"source"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Outage    OutageConfig    `mapstructure:"outage"`
	Output    OutputConfig    `mapstructure:"output"`
	Collector CollectorConfig `mapstructure:"collector"`
}

// AppConfig holds application identity settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// SourceConfig holds settings for the disclosure site.
type SourceConfig struct {
	// BaseURL is the root of the disclosure site.
	BaseURL string `mapstructure:"base_url"`
	// UserAgent is sent with every request.
	UserAgent string `mapstructure:"user_agent"`
	// Timeout bounds each HTTP request.
	Timeout time.Duration `mapstructure:"timeout"`
	// Delay separates sequential registration fetches.
	Delay time.Duration `mapstructure:"delay"`
}

// RetryConfig holds the per-page retry budget.
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	Multiplier   float64       `mapstructure:"multiplier"`
}

// OutageConfig holds the site-wide outage gate settings.
type OutageConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
	Window           time.Duration `mapstructure:"window"`
}

// OutputConfig holds output destination settings.
type OutputConfig struct {
	// Dir is the directory output files are written to.
	Dir string `mapstructure:"dir"`
}

// CollectorConfig holds collection run settings.
type CollectorConfig struct {
	// Workers bounds parallelism for bulk registration fetching.
	Workers int `mapstructure:"workers"`
}

// Load builds the configuration from Viper's current state and
// validates it.
func Load() (*Config, error) {
	var cfg Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration for usability.
func (c *Config) Validate() error {
	if err := c.Source.Validate(); err != nil {
		return err
	}
	if err := c.Retry.Validate(); err != nil {
		return err
	}
	if err := c.Outage.Validate(); err != nil {
		return err
	}
	if c.Output.Dir == "" {
		return ErrMissingOutputDir
	}
	if c.Collector.Workers < 1 {
		return ErrInvalidWorkers
	}
	return nil
}

// Validate checks the source settings.
func (c *SourceConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("source base_url %q: %w", c.BaseURL, err)
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// Validate checks the retry settings.
func (c *RetryConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	return nil
}

// Validate checks the outage gate settings.
func (c *OutageConfig) Validate() error {
	if c.FailureThreshold < 1 {
		return ErrInvalidThreshold
	}
	if c.Cooldown <= 0 {
		return ErrInvalidCooldown
	}
	return nil
}
