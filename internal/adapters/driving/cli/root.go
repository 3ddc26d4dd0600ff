// Package cli implements the sercha-indexer command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexer/internal/app"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

var (
	configDir string
	dataDir   string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "sercha-indexer",
	Short: "Periodic document collation and indexing service",
	Long: `sercha-indexer collects documents from configured sources on a schedule,
runs them through the decorator chain and publishes each type's batch to
the search index as a whole.

Sources, decorators and intervals are read from indexer.toml in the
config directory (default ~/.sercha-indexer).`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.sercha-indexer)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the SQLite store")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	// A .env file is optional.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Services holds what the commands need from the assembled indexer.
type Services struct {
	Search          driving.SearchService
	Scheduler       driving.Scheduler
	Runner          driving.PipelineRunner
	Collators       driving.CollatorRegistry
	History         driven.SchedulerStore
	SchedulerConfig domain.SchedulerConfig

	// Watch reloads configuration until ctx is done. May be nil.
	Watch func(ctx context.Context) error

	// Close releases the underlying stores.
	Close func() error
}

// loadServices builds the indexer. Tests replace it.
var loadServices = func(ctx context.Context) (*Services, error) {
	a, err := app.New(ctx, app.Options{ConfigDir: configDir, DataDir: dataDir})
	if err != nil {
		return nil, err
	}
	return &Services{
		Search:          a.Search,
		Scheduler:       a.Scheduler,
		Runner:          a.Runner,
		Collators:       a.Collators,
		History:         a.Schedules,
		SchedulerConfig: a.SchedulerConfig,
		Watch:           a.WatchConfig,
		Close:           a.Close,
	}, nil
}

// withServices loads the services, runs fn and releases them.
func withServices(ctx context.Context, fn func(ctx context.Context, svc *Services) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	svc, err := loadServices(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialise indexer: %w", err)
	}
	defer func() {
		if svc.Close != nil {
			err = errors.Join(err, svc.Close())
		}
	}()

	return fn(ctx, svc)
}

// resolveConfigDir returns the effective config directory.
func resolveConfigDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sercha-indexer"), nil
}
