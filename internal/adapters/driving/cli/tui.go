package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/tui"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

var tuiNoScheduler bool

// isTerminal reports whether stdout is interactive. Tests replace it.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	Long: `Launches a terminal dashboard showing every type's schedule, with
on-demand refresh and search over the published index. The scheduler runs
in the background while the dashboard is open.

Controls:
  tab     - Switch between status and search
  r       - Refresh the selected type
  ctrl+r  - Reload status
  ↑/k ↓/j - Navigate
  q       - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().BoolVar(&tuiNoScheduler, "no-scheduler", false, "do not run scheduled cycles while open")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if !isTerminal() {
		return errors.New("tui requires an interactive terminal")
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	return withServices(cmd.Context(), func(ctx context.Context, svc *Services) error {
		// Log lines would corrupt the alternate screen.
		logger.SetOutput(io.Discard)

		if !tuiNoScheduler {
			schedulerCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			go func() {
				if err := ignoreCanceled(svc.Scheduler.Start(schedulerCtx)); err != nil {
					fmt.Fprintf(os.Stderr, "scheduler stopped: %v\n", err)
				}
			}()
			defer func() {
				if err := svc.Scheduler.Stop(); err != nil {
					fmt.Fprintf(os.Stderr, "scheduler stop error: %v\n", err)
				}
			}()
		}

		app, err := tui.NewApp(&tui.Ports{Search: svc.Search, Scheduler: svc.Scheduler})
		if err != nil {
			return fmt.Errorf("failed to create TUI: %w", err)
		}
		app.WithContext(ctx)

		if err := app.Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	})
}
