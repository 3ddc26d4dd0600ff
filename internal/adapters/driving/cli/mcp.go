package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the published index over MCP stdio",
	Long: `Starts a Model Context Protocol server over stdio for AI assistant
integration. The scheduler is not started; use the refresh tool to run a
cycle on demand, or "serve --port" for a long-running HTTP endpoint.

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "sercha-indexer": {
        "command": "/path/to/sercha-indexer",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	return withServices(cmd.Context(), func(ctx context.Context, svc *Services) error {
		server, err := mcp.NewServer(&mcp.Ports{Search: svc.Search, Scheduler: svc.Scheduler})
		if err != nil {
			return err
		}
		return ignoreCanceled(server.Run(ctx))
	})
}
