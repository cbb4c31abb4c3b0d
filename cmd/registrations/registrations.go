// Package registrations implements the get-registrations and
// get-all-registrations commands, which fetch entity registration
// documents and write them as JSON, one file per entity.
package registrations

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/utdisclosures/cmd/common"
)

// GetCommand returns the get-registrations command for use in the root command.
func GetCommand() *cobra.Command {
	var skipExisting bool

	cmd := &cobra.Command{
		Use:   "get-registrations ENTITY_ID",
		Short: "Get entity registration by id",
		Long: `Fetch one entity's registration document and write it as a single JSON
file with all information from the entity's registration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			col, err := common.NewCollector(deps, common.CollectorOptions{
				SkipExisting: skipExisting,
			})
			if err != nil {
				return fmt.Errorf("failed to create collector: %w", err)
			}
			defer col.Close()

			if runErr := col.CollectRegistration(cmd.Context(), args[0]); runErr != nil {
				return runErr
			}

			common.RenderSummary(col.Summary())

			return nil
		},
	}

	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false,
		"skip the fetch when the registration file already exists")

	return cmd
}

// GetAllCommand returns the get-all-registrations command for use in the root command.
func GetAllCommand() *cobra.Command {
	var (
		skipExisting bool
		workers      int
	)

	cmd := &cobra.Command{
		Use:   "get-all-registrations",
		Short: "Get all entity registrations",
		Long: `Fetch a registration document for every entity and write one JSON file
per entity. A ut_entities.csv from a prior get-entities run is reused
when present; otherwise the entity listing is enumerated first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			col, err := common.NewCollector(deps, common.CollectorOptions{
				SkipExisting: skipExisting,
				Workers:      workers,
			})
			if err != nil {
				return fmt.Errorf("failed to create collector: %w", err)
			}
			defer col.Close()

			if runErr := col.CollectAllRegistrations(cmd.Context()); runErr != nil {
				return runErr
			}

			common.RenderSummary(col.Summary())

			return nil
		},
	}

	cmd.Flags().BoolVar(&skipExisting, "skip-existing", true,
		"skip entities whose registration file already exists")
	cmd.Flags().IntVar(&workers, "workers", 0,
		"number of parallel fetch workers (0 means use the configured value)")

	return cmd
}
