package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jonesrussell/utdisclosures/internal/domain"
	"github.com/jonesrussell/utdisclosures/internal/writer"
)

// registrationPath returns the output path for one entity's
// registration document.
func (c *Collector) registrationPath(entityID string) string {
	return filepath.Join(c.cfg.OutputDir, fmt.Sprintf("ut_registration_%s.json", entityID))
}

// CollectRegistration fetches one entity's registration document and
// writes it as JSON.
func (c *Collector) CollectRegistration(ctx context.Context, entityID string) error {
	path := c.registrationPath(entityID)

	if c.cfg.SkipExisting {
		if _, statErr := os.Stat(path); statErr == nil {
			c.log.Info("registration already exists", "path", path)
			return nil
		}
	}

	pageID := "registration/" + entityID

	var entity *domain.Entity

	fetchErr := c.fetchWithPolicy(ctx, pageID, func() error {
		got, err := c.site.Registration(ctx, entityID)
		if err != nil {
			return err
		}
		entity = got
		return nil
	})
	if fetchErr != nil {
		return c.skipOrFail(pageID, fetchErr)
	}

	if writeErr := writer.WriteJSON(path, entity); writeErr != nil {
		return writeErr
	}

	c.recordWritten()
	c.log.Info("wrote registration", "path", path, "entity_id", entityID)

	return nil
}

// CollectAllRegistrations fetches a registration document for every
// entity. The entity set comes from a prior get-entities run when its
// CSV is present in the output directory, otherwise the listing is
// enumerated live.
func (c *Collector) CollectAllRegistrations(ctx context.Context) error {
	listing := filepath.Join(c.cfg.OutputDir, entitiesFileName)

	var rows []domain.EntityRow

	if _, statErr := os.Stat(listing); statErr == nil {
		read, readErr := writer.ReadEntities(listing)
		if readErr != nil {
			return readErr
		}
		rows = read
		c.log.Info("using existing entity listing", "path", listing, "entities", len(rows))
	} else {
		enumerated, enumErr := c.EntityRows(ctx)
		if enumErr != nil {
			return enumErr
		}
		rows = enumerated
	}

	if c.cfg.Workers > 1 {
		return c.collectRegistrationsParallel(ctx, rows)
	}

	return c.collectRegistrationsSequential(ctx, rows)
}

// collectRegistrationsSequential fetches registrations one at a time
// with a politeness delay between fetches.
func (c *Collector) collectRegistrationsSequential(ctx context.Context, rows []domain.EntityRow) error {
	for i, row := range rows {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := c.CollectRegistration(ctx, row.EntityID); err != nil {
			return err
		}

		if i < len(rows)-1 && c.cfg.Delay > 0 {
			if err := c.sleep(ctx, c.cfg.Delay); err != nil {
				return err
			}
		}
	}

	return nil
}

// collectRegistrationsParallel fans rows out to a bounded worker pool.
// Output paths are distinct per entity, so workers never contend for a
// file.
func (c *Collector) collectRegistrationsParallel(ctx context.Context, rows []domain.EntityRow) error {
	c.log.Info("starting registration workers", "worker_count", c.cfg.Workers)

	jobs := make(chan domain.EntityRow)

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)

	for i := 0; i < c.cfg.Workers; i++ {
		wg.Add(1)

		go func(workerID int) {
			defer wg.Done()

			for row := range jobs {
				if ctx.Err() != nil {
					continue
				}

				if err := c.CollectRegistration(ctx, row.EntityID); err != nil {
					errMu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					errMu.Unlock()

					c.log.Error("registration failed",
						"worker_id", workerID,
						"entity_id", row.EntityID,
						"error", err.Error(),
					)
				}
			}
		}(i)
	}

feed:
	for _, row := range rows {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- row:
		}
	}

	close(jobs)
	wg.Wait()

	c.log.Info("registration workers stopped")

	if firstErr != nil {
		return firstErr
	}

	return ctx.Err()
}
