package common

import (
	"fmt"

	"github.com/jonesrussell/utdisclosures/internal/collector"
	"github.com/jonesrussell/utdisclosures/internal/outage"
	"github.com/jonesrussell/utdisclosures/internal/retry"
	"github.com/jonesrussell/utdisclosures/internal/site"
)

// CollectorOptions carries per-command overrides for the collector.
type CollectorOptions struct {
	// Workers overrides the configured worker count when positive.
	Workers int
	// SkipExisting skips registration fetches whose output file already exists.
	SkipExisting bool
}

// NewCollector wires the site client, retry policy, and outage gate
// into a collector from the loaded configuration. Callers own the
// returned collector and must Close it at run end.
func NewCollector(deps CommandDeps, opts CollectorOptions) (*collector.Collector, error) {
	cfg := deps.Config

	siteClient, err := site.New(site.Config{
		BaseURL:   cfg.Source.BaseURL,
		UserAgent: cfg.Source.UserAgent,
		Timeout:   cfg.Source.Timeout,
	}, deps.Logger.WithComponent("site"))
	if err != nil {
		return nil, fmt.Errorf("create site client: %w", err)
	}

	gate := outage.New(outage.Config{
		FailureThreshold: cfg.Outage.FailureThreshold,
		Cooldown:         cfg.Outage.Cooldown,
		Window:           cfg.Outage.Window,
		OnStateChange: func(from, to outage.State) {
			deps.Logger.Warn("outage gate state changed",
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	workers := cfg.Collector.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	return collector.New(collector.Params{
		Site: siteClient,
		Retry: retry.Config{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Multiplier:   cfg.Retry.Multiplier,
		},
		Gate:   gate,
		Logger: deps.Logger,
		Config: collector.Config{
			OutputDir:    cfg.Output.Dir,
			Workers:      workers,
			Delay:        cfg.Source.Delay,
			SkipExisting: opts.SkipExisting,
		},
	})
}
