package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

var (
	statusHistory int
	statusJSON    bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schedule and published state of every type",
	Long: `Lists every registered document type with its refresh interval, last
and next run, published batch size and last error. State recorded by a
running "serve" process is shown when the store is shared.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusHistory, "history", 0, "also show the last N cycles of each type")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)
}

// typeStatus is the JSON form of one type's status.
type typeStatus struct {
	Type            string               `json:"type"`
	State           domain.ScheduleState `json:"state"`
	IntervalSeconds int64                `json:"interval_seconds"`
	LastRun         *time.Time           `json:"last_run,omitempty"`
	NextRun         *time.Time           `json:"next_run,omitempty"`
	LastSuccess     *time.Time           `json:"last_success,omitempty"`
	LastError       string               `json:"last_error,omitempty"`
	Published       int                  `json:"published"`
	RunID           string               `json:"run_id,omitempty"`
	History         []domain.CycleResult `json:"history,omitempty"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	return withServices(cmd.Context(), func(ctx context.Context, svc *Services) error {
		statuses, err := collectStatus(ctx, svc)
		if err != nil {
			return err
		}

		if statusJSON {
			data, err := json.MarshalIndent(statuses, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal status: %w", err)
			}
			cmd.Println(string(data))
			return nil
		}

		if len(statuses) == 0 {
			cmd.Println("No document types registered.")
			return nil
		}
		printStatus(cmd, statuses, time.Now())
		return nil
	})
}

func collectStatus(ctx context.Context, svc *Services) ([]typeStatus, error) {
	stats, err := svc.Search.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read published state: %w", err)
	}
	published := make(map[string]domain.TypeStats, len(stats))
	for _, s := range stats {
		published[s.Type] = s
	}

	schedules := svc.Scheduler.Status()
	statuses := make([]typeStatus, 0, len(schedules))
	for _, sched := range schedules {
		sched = persistedSchedule(ctx, svc.History, sched)

		st := typeStatus{
			Type:            sched.Type,
			State:           sched.State,
			IntervalSeconds: int64(sched.Interval / time.Second),
			LastRun:         timePtr(sched.LastRun),
			NextRun:         timePtr(sched.NextRun),
			LastSuccess:     timePtr(sched.LastSuccess),
			LastError:       sched.LastError,
			Published:       sched.Documents,
		}
		if p, ok := published[sched.Type]; ok {
			st.Published = p.Documents
			st.RunID = p.RunID
		}

		if statusHistory > 0 && svc.History != nil {
			history, err := svc.History.GetHistory(ctx, sched.Type, statusHistory)
			if err != nil {
				return nil, fmt.Errorf("failed to read history of %s: %w", sched.Type, err)
			}
			st.History = history
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// persistedSchedule prefers the stored schedule when this process has not
// run the type yet.
func persistedSchedule(ctx context.Context, store driven.SchedulerStore, sched domain.TypeSchedule) domain.TypeSchedule {
	if store == nil || !sched.LastRun.IsZero() {
		return sched
	}
	stored, err := store.GetSchedule(ctx, sched.Type)
	if err != nil || stored == nil {
		return sched
	}
	merged := *stored
	// The interval comes from the current configuration.
	merged.Interval = sched.Interval
	return merged
}

func printStatus(cmd *cobra.Command, statuses []typeStatus, now time.Time) {
	cmd.Printf("%-20s %-8s %-8s %-14s %-14s %6s  %s\n",
		"TYPE", "STATE", "EVERY", "LAST RUN", "NEXT RUN", "DOCS", "LAST ERROR")
	for _, st := range statuses {
		cmd.Printf("%-20s %-8s %-8s %-14s %-14s %6d  %s\n",
			st.Type,
			st.State,
			formatInterval(time.Duration(st.IntervalSeconds)*time.Second),
			formatWhen(st.LastRun, now),
			formatWhen(st.NextRun, now),
			st.Published,
			st.LastError,
		)
	}

	for _, st := range statuses {
		if len(st.History) == 0 {
			continue
		}
		cmd.Println()
		cmd.Printf("%s history:\n", st.Type)
		for _, r := range st.History {
			outcome := "ok"
			switch {
			case r.Skipped:
				outcome = "skipped"
			case !r.Success:
				outcome = fmt.Sprintf("failed at %s: %s", r.Stage, r.Error)
			}
			cmd.Printf("  %s  %s  %6d docs  %8s  %s\n",
				r.StartedAt.Format(time.DateTime), r.RunID, r.Documents,
				r.Duration().Round(time.Millisecond), outcome)
		}
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func formatInterval(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.String()
}

func formatWhen(t *time.Time, now time.Time) string {
	if t == nil {
		return "never"
	}
	d := t.Sub(now).Round(time.Second)
	if d < 0 {
		return (-d).String() + " ago"
	}
	return "in " + d.String()
}
