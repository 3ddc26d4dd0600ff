package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/mcp"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// lockFileName guards against two indexers sharing one config directory.
const lockFileName = "indexer.lock"

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the indexer scheduler",
	Long: `Runs every registered type on its refresh interval until interrupted.

The configuration file is watched; changes to refresh interval overrides
and log settings apply without a restart. Use --port to also serve the
MCP tools over HTTP.

Examples:
  sercha-indexer serve
  sercha-indexer serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "serve MCP over HTTP on this port (0 = disabled)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	lock, err := acquireLock()
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withServices(ctx, func(ctx context.Context, svc *Services) error {
		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			return ignoreCanceled(svc.Scheduler.Start(gctx))
		})

		if svc.Watch != nil {
			g.Go(func() error {
				if err := svc.Watch(gctx); err != nil {
					// The indexer keeps running on the loaded configuration.
					logger.Warn("config watch disabled: %v", err)
				}
				return nil
			})
		}

		if servePort > 0 {
			server, err := mcp.NewServer(&mcp.Ports{Search: svc.Search, Scheduler: svc.Scheduler})
			if err != nil {
				return err
			}
			addr := fmt.Sprintf(":%d", servePort)
			cmd.Printf("MCP server listening on http://localhost%s\n", addr)
			g.Go(func() error {
				return server.RunHTTP(gctx, addr)
			})
		}

		return g.Wait()
	})
}

func acquireLock() (*flock.Flock, error) {
	dir, err := resolveConfigDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another indexer is already running with config %s", dir)
	}
	return lock, nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
