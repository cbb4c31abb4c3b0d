// Package entities implements the get-entities command, which walks
// the source's full entity listing and writes it as CSV.
package entities

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/utdisclosures/cmd/common"
)

// Command returns the get-entities command for use in the root command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "get-entities",
		Short: "Get all entities",
		Long: `Walk the full entity listing on disclosures.utah.gov and write every
registered entity to ut_entities.csv in the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			col, err := common.NewCollector(deps, common.CollectorOptions{})
			if err != nil {
				return fmt.Errorf("failed to create collector: %w", err)
			}
			defer col.Close()

			if runErr := col.CollectEntities(cmd.Context()); runErr != nil {
				return runErr
			}

			common.RenderSummary(col.Summary())

			return nil
		},
	}
}
