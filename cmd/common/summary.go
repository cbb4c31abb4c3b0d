package common

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jonesrussell/utdisclosures/internal/collector"
)

// RenderSummary prints the end-of-run summary: file and skip counts,
// plus a table listing every skipped page and why it was skipped.
func RenderSummary(s collector.Summary) {
	fmt.Printf("run %s: wrote %d file(s), skipped %d page(s)\n",
		s.RunID, s.Written, len(s.Skips))

	if len(s.Skips) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Skipped Page", "Reason"})

	for _, skip := range s.Skips {
		t.AppendRow(table.Row{skip.ID, skip.Reason})
	}

	t.Render()
}
