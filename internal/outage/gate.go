// Package outage detects full-site outages and paces fetching through
// them. Transient failures on enough *different* pages within a short
// window open a cooldown gate; after the cooldown one probe request is
// let through, and a probe success resumes normal fetching. The gate
// never blocks indefinitely and never needs operator intervention.
package outage

import (
	"context"
	"sync"
	"time"

	"github.com/jonesrussell/utdisclosures/internal/retry"
)

// State represents the state of the outage gate.
type State int

const (
	// StateClosed means the source looks healthy and requests flow freely.
	StateClosed State = iota
	// StateOpen means a site-wide outage is suspected and fetching is paused.
	StateOpen
	// StateHalfOpen means the cooldown elapsed and the next request probes the source.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config configures an outage gate.
type Config struct {
	// FailureThreshold is the number of consecutive distinct pages that
	// must fail transiently before the gate opens.
	FailureThreshold int
	// Cooldown is how long fetching pauses once the gate opens. The
	// source's outages last minutes to hours, so this is on the order
	// of minutes rather than the per-page backoff's milliseconds.
	Cooldown time.Duration
	// Window bounds how far apart the counted failures may be. Failures
	// older than the window no longer indicate an ongoing outage.
	Window time.Duration
	// Sleep waits out the cooldown; defaults to retry.Sleep.
	Sleep retry.SleepFunc
	// OnStateChange is an optional callback when the state changes.
	OnStateChange func(from, to State)
}

// DefaultConfig returns a default outage gate configuration.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 3,
		Cooldown:         2 * time.Minute,
		Window:           5 * time.Minute,
	}
}

// Gate tracks transient failures across pages and pauses fetching
// during suspected site-wide outages.
type Gate struct {
	mu            sync.Mutex
	state         State
	failures      int
	lastFailPage  string
	lastFailTime  time.Time
	openedAt      time.Time
	config        Config
	now           func() time.Time
	onStateChange func(from, to State)
}

// New creates an outage gate with the given configuration.
func New(config Config) *Gate {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 3
	}
	if config.Cooldown <= 0 {
		config.Cooldown = 2 * time.Minute
	}
	if config.Window <= 0 {
		config.Window = 5 * time.Minute
	}
	if config.Sleep == nil {
		config.Sleep = retry.Sleep
	}

	return &Gate{
		state:         StateClosed,
		config:        config,
		now:           time.Now,
		onStateChange: config.OnStateChange,
	}
}

// Wait blocks while the gate is open. Once the remaining cooldown has
// elapsed the gate half-opens and the caller's next request acts as
// the recovery probe. Wait returns early with the context's error on
// cancellation.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()

	if g.state != StateOpen {
		g.mu.Unlock()
		return nil
	}

	remaining := g.config.Cooldown - g.now().Sub(g.openedAt)
	g.mu.Unlock()

	if remaining > 0 {
		if err := g.config.Sleep(ctx, remaining); err != nil {
			return err
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// The cooldown has been served; the next request probes the source.
	if g.state == StateOpen {
		g.transitionTo(StateHalfOpen)
	}

	return nil
}

// RecordSuccess notes a successful fetch. In half-open state the probe
// succeeded and normal fetching resumes; in closed state the distinct-
// page failure streak resets.
func (g *Gate) RecordSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.failures = 0
	g.lastFailPage = ""

	if g.state == StateHalfOpen {
		g.transitionTo(StateClosed)
	}
}

// RecordFailure notes a transient fetch failure for the given page.
// Repeated failures of the same page count once; the gate opens only
// when enough different pages fail within the window.
func (g *Gate) RecordFailure(page string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	switch g.state {
	case StateHalfOpen:
		// The probe failed; the outage is still on.
		g.openedAt = now
		g.transitionTo(StateOpen)
	case StateClosed:
		if !g.lastFailTime.IsZero() && now.Sub(g.lastFailTime) > g.config.Window {
			g.failures = 0
			g.lastFailPage = ""
		}

		if page != g.lastFailPage {
			g.failures++
			g.lastFailPage = page
		}
		g.lastFailTime = now

		if g.failures >= g.config.FailureThreshold {
			g.openedAt = now
			g.transitionTo(StateOpen)
		}
	case StateOpen:
		// Already paused; nothing more to learn from this failure.
	}
}

// State returns the current state of the gate.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// transitionTo transitions to a new state. Callers must hold g.mu.
func (g *Gate) transitionTo(newState State) {
	if g.state == newState {
		return
	}

	oldState := g.state
	g.state = newState

	if newState == StateClosed {
		g.failures = 0
		g.lastFailPage = ""
	}

	if g.onStateChange != nil {
		g.onStateChange(oldState, newState)
	}
}
