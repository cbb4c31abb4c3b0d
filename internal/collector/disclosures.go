package collector

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jonesrussell/utdisclosures/internal/writer"
)

// CollectDisclosures fetches one entity's disclosure report for one
// year and writes it as CSV, header and field names exactly as the
// source returned them.
func (c *Collector) CollectDisclosures(ctx context.Context, entityID, year string) error {
	pageID := fmt.Sprintf("disclosures/%s/%s", entityID, year)

	var (
		header []string
		rows   [][]string
	)

	fetchErr := c.fetchWithPolicy(ctx, pageID, func() error {
		h, r, err := c.site.Disclosures(ctx, entityID, year)
		if err != nil {
			return err
		}
		header, rows = h, r
		return nil
	})
	if fetchErr != nil {
		return c.skipOrFail(pageID, fetchErr)
	}

	path := filepath.Join(c.cfg.OutputDir,
		fmt.Sprintf("ut_disclosures_%s_%s.csv", entityID, year))

	if writeErr := writer.WriteCSV(path, header, rows); writeErr != nil {
		return writeErr
	}

	c.recordWritten()
	c.log.Info("wrote disclosures", "path", path, "rows", len(rows))

	return nil
}
