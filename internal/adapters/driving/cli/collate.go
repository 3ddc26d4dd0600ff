package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexer/internal/core/services"
)

var collateCmd = &cobra.Command{
	Use:   "collate [type]",
	Short: "Run one indexing cycle now",
	Long: `Runs collate, decorate and commit for one document type, or for every
registered type when none is given. A failing type never prevents the
others from publishing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCollate,
}

func init() {
	rootCmd.AddCommand(collateCmd)
}

func runCollate(cmd *cobra.Command, args []string) error {
	return withServices(cmd.Context(), func(ctx context.Context, svc *Services) error {
		if len(args) == 1 {
			result, err := svc.Runner.RunCycle(ctx, args[0])
			if err != nil {
				return fmt.Errorf("collate %s: %w", args[0], err)
			}
			cmd.Printf("%s: published %d documents (run %s)\n", result.Type, result.Documents, result.RunID)
			return nil
		}

		types := svc.Collators.ListTypes()
		if len(types) == 0 {
			cmd.Println("No document types registered.")
			return nil
		}

		failures := svc.Runner.RunAll(ctx)
		for _, docType := range types {
			if err, failed := failures[docType]; failed {
				cmd.Printf("  %-20s failed: %v\n", docType, err)
				continue
			}
			cmd.Printf("  %-20s ok\n", docType)
		}
		return services.JoinFailures(failures)
	})
}
