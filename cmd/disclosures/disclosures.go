// Package disclosures implements the get-disclosures command, which
// fetches one entity's disclosure report for one year and writes it as
// CSV.
package disclosures

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/utdisclosures/cmd/common"
)

// Command returns the get-disclosures command for use in the root command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "get-disclosures ENTITY_ID YEAR",
		Short: "Get disclosures by entity id and year",
		Long: `Fetch the disclosure report for one entity and year and write it as a
single CSV file, using the same field names disclosures.utah.gov does.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityID, year := args[0], args[1]

			if _, err := strconv.Atoi(year); err != nil {
				return fmt.Errorf("invalid year %q: %w", year, err)
			}

			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			col, err := common.NewCollector(deps, common.CollectorOptions{})
			if err != nil {
				return fmt.Errorf("failed to create collector: %w", err)
			}
			defer col.Close()

			if runErr := col.CollectDisclosures(cmd.Context(), entityID, year); runErr != nil {
				return runErr
			}

			common.RenderSummary(col.Summary())

			return nil
		},
	}
}
