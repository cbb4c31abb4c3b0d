package collector

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jonesrussell/utdisclosures/internal/domain"
	"github.com/jonesrussell/utdisclosures/internal/writer"
)

// entitiesFileName is the output file for the full entity listing.
const entitiesFileName = "ut_entities.csv"

// maxListingPageFailures bounds consecutive skipped listing pages
// before enumeration is declared permanently failed. Unlike a single
// bad report page, a listing that cannot be read at all leaves nothing
// to enumerate, so this aborts the run.
const maxListingPageFailures = 3

// EntityRows walks the paginated entity listing and returns one row
// per entity in source order. The source wraps around to the first
// page after the last one, so enumeration stops at the first entity id
// seen twice.
func (c *Collector) EntityRows(ctx context.Context) ([]domain.EntityRow, error) {
	seen := make(map[string]struct{})

	var rows []domain.EntityRow

	failures := 0

	for page := 1; ; page++ {
		pageID := fmt.Sprintf("entities/page/%d", page)

		var items []domain.EntityRow

		fetchErr := c.fetchWithPolicy(ctx, pageID, func() error {
			got, err := c.site.EntityListPage(ctx, page)
			if err != nil {
				return err
			}
			items = got
			return nil
		})

		if fetchErr != nil {
			if failErr := c.skipOrFail(pageID, fetchErr); failErr != nil {
				return nil, failErr
			}

			failures++
			if failures >= maxListingPageFailures {
				return nil, fmt.Errorf("entity listing failed on %d consecutive pages: %w",
					failures, fetchErr)
			}

			continue
		}

		failures = 0

		wrapped := false
		for _, item := range items {
			if _, dup := seen[item.EntityID]; dup {
				wrapped = true
				break
			}
			seen[item.EntityID] = struct{}{}
			rows = append(rows, item)
		}

		if wrapped {
			return rows, nil
		}
	}
}

// CollectEntities fetches the full entity listing and writes it to
// ut_entities.csv in the output directory.
func (c *Collector) CollectEntities(ctx context.Context) error {
	rows, err := c.EntityRows(ctx)
	if err != nil {
		return err
	}

	path := filepath.Join(c.cfg.OutputDir, entitiesFileName)

	if writeErr := writer.WriteEntities(path, rows); writeErr != nil {
		return writeErr
	}

	c.recordWritten()
	c.log.Info("wrote entity listing", "path", path, "entities", len(rows))

	return nil
}
