package collector

// Skip identifies one item that produced no output file.
type Skip struct {
	// ID names the skipped page (entity, year, or listing page).
	ID string
	// Reason is the final error that exhausted or bypassed retries.
	Reason string
}

// Summary reports the outcome of one collection run.
type Summary struct {
	RunID   string
	Written int
	Skips   []Skip
}

// Summary returns a snapshot of the run's outcome so far.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	skips := make([]Skip, len(c.skips))
	copy(skips, c.skips)

	return Summary{
		RunID:   c.runID,
		Written: c.written,
		Skips:   skips,
	}
}
