package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Source: SourceConfig{
			BaseURL: "https://disclosures.utah.gov",
			Timeout: DefaultTimeout,
			Delay:   DefaultDelay,
		},
		Retry: RetryConfig{
			MaxAttempts:  DefaultMaxAttempts,
			InitialDelay: DefaultInitialDelay,
			MaxDelay:     DefaultMaxDelay,
			Multiplier:   DefaultMultiplier,
		},
		Outage: OutageConfig{
			FailureThreshold: DefaultFailureThreshold,
			Cooldown:         DefaultCooldown,
			Window:           DefaultWindow,
		},
		Output:    OutputConfig{Dir: DefaultOutputDir},
		Collector: CollectorConfig{Workers: DefaultWorkers},
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing base url",
			mutate:  func(c *Config) { c.Source.BaseURL = "" },
			wantErr: ErrMissingBaseURL,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Source.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "zero retry attempts",
			mutate:  func(c *Config) { c.Retry.MaxAttempts = 0 },
			wantErr: ErrInvalidMaxAttempts,
		},
		{
			name:    "zero failure threshold",
			mutate:  func(c *Config) { c.Outage.FailureThreshold = 0 },
			wantErr: ErrInvalidThreshold,
		},
		{
			name:    "negative cooldown",
			mutate:  func(c *Config) { c.Outage.Cooldown = -time.Minute },
			wantErr: ErrInvalidCooldown,
		},
		{
			name:    "missing output dir",
			mutate:  func(c *Config) { c.Output.Dir = "" },
			wantErr: ErrMissingOutputDir,
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Collector.Workers = 0 },
			wantErr: ErrInvalidWorkers,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
