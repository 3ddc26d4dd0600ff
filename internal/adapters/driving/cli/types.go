package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List registered document types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withServices(cmd.Context(), func(_ context.Context, svc *Services) error {
			types := svc.Collators.ListTypes()
			if len(types) == 0 {
				cmd.Println("No document types registered.")
				return nil
			}
			for _, docType := range types {
				reg, err := svc.Collators.Get(docType)
				if err != nil {
					return err
				}
				cmd.Printf("%-20s every %s\n", docType, reg.RefreshInterval)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
}
