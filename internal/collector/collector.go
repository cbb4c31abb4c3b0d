// Package collector composes enumerators, the site client, the retry
// policy, and the writers into complete collection runs. Each work
// item ends Written or Skipped; skips are recorded for the end-of-run
// summary and never abort the run.
package collector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/utdisclosures/internal/logger"
	"github.com/jonesrussell/utdisclosures/internal/outage"
	"github.com/jonesrussell/utdisclosures/internal/retry"
	"github.com/jonesrussell/utdisclosures/internal/site"
)

// Common construction errors.
var (
	ErrSiteRequired   = errors.New("site client is required")
	ErrGateRequired   = errors.New("outage gate is required")
	ErrLoggerRequired = errors.New("logger is required")
)

// Config holds collection run settings.
type Config struct {
	// OutputDir is where output files land.
	OutputDir string
	// Workers bounds parallelism for bulk registration fetching.
	Workers int
	// Delay separates sequential registration fetches.
	Delay time.Duration
	// SkipExisting skips registration fetches whose output file already exists.
	SkipExisting bool
}

// Params bundles the collector's dependencies.
type Params struct {
	Site   *site.Client
	Retry  retry.Config
	Gate   *outage.Gate
	Logger logger.Interface
	Config Config
	// Sleep waits out the politeness delay; defaults to retry.Sleep.
	Sleep retry.SleepFunc
}

// Collector runs collection operations against the disclosure site.
type Collector struct {
	site     *site.Client
	retryCfg retry.Config
	gate     *outage.Gate
	log      logger.Interface
	cfg      Config
	runID    string
	sleep    retry.SleepFunc

	mu      sync.Mutex
	written int
	skips   []Skip
}

// New creates a collector and ensures the output directory is usable.
func New(p Params) (*Collector, error) {
	if p.Site == nil {
		return nil, ErrSiteRequired
	}
	if p.Gate == nil {
		return nil, ErrGateRequired
	}
	if p.Logger == nil {
		return nil, ErrLoggerRequired
	}
	if p.Config.Workers < 1 {
		p.Config.Workers = 1
	}
	if p.Sleep == nil {
		p.Sleep = retry.Sleep
	}

	if err := os.MkdirAll(p.Config.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	// Retry only what the site client marked retryable.
	p.Retry.IsRetryable = site.IsTransient

	runID := uuid.NewString()

	return &Collector{
		site:     p.Site,
		retryCfg: p.Retry,
		gate:     p.Gate,
		log:      p.Logger.WithRunID(runID),
		cfg:      p.Config,
		runID:    runID,
		sleep:    p.Sleep,
	}, nil
}

// Close releases the underlying HTTP connection pool.
func (c *Collector) Close() {
	c.site.Close()
}

// RunID returns the identifier for this run.
func (c *Collector) RunID() string {
	return c.runID
}

// fetchWithPolicy runs fn under the outage gate and the per-page retry
// policy. Each attempt first waits out any open cooldown, so the first
// request after a cooldown doubles as the recovery probe.
func (c *Collector) fetchWithPolicy(ctx context.Context, pageID string, fn func() error) error {
	attempt := func() error {
		if err := c.gate.Wait(ctx); err != nil {
			return err
		}

		err := fn()

		switch {
		case err == nil:
			c.gate.RecordSuccess()
		case site.IsTransient(err):
			c.gate.RecordFailure(pageID)
		}

		return err
	}

	return retry.Do(ctx, c.retryCfg, attempt)
}

// skipOrFail converts an exhausted retry budget or a permanent fetch
// failure into a recorded skip. Cancellation and anything unexpected
// stay fatal.
func (c *Collector) skipOrFail(pageID string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, retry.ErrContextCancelled):
		return err
	case errors.Is(err, retry.ErrBudgetExhausted), site.IsPermanent(err):
		c.skip(pageID, err.Error())
		return nil
	default:
		return err
	}
}

// skip records one skipped item for the run summary.
func (c *Collector) skip(pageID, reason string) {
	c.mu.Lock()
	c.skips = append(c.skips, Skip{ID: pageID, Reason: reason})
	c.mu.Unlock()

	c.log.Warn("page skipped", "id", pageID, "reason", reason)
}

// recordWritten counts one completed output file.
func (c *Collector) recordWritten() {
	c.mu.Lock()
	c.written++
	c.mu.Unlock()
}
