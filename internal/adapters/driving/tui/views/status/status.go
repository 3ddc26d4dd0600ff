// Package status provides the schedule dashboard view for the TUI.
package status

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// View shows one table row per document type: schedule state, interval,
// last and next run, published batch size and the last error.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	table  table.Model

	schedules []domain.TypeSchedule
	stats     map[string]domain.TypeStats
	err       error
	now       func() time.Time
}

// NewView creates the dashboard.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithStyles(s.Table()),
	)

	return &View{
		styles: s,
		keymap: km,
		table:  t,
		stats:  make(map[string]domain.TypeStats),
		now:    time.Now,
	}
}

func columns(width int) []table.Column {
	// The error column takes the width the fixed columns leave.
	return []table.Column{
		{Title: "Type", Width: 16},
		{Title: "State", Width: 8},
		{Title: "Every", Width: 8},
		{Title: "Last run", Width: 10},
		{Title: "Next run", Width: 10},
		{Title: "Docs", Width: 6},
		{Title: "Last error", Width: max(width-66, 12)},
	}
}

// Update handles dashboard messages. Pressing the refresh key emits a
// RefreshRequested for the selected type.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.StatusLoaded:
		v.SetStatus(msg.Schedules, msg.Stats, msg.Err)
		return v, nil

	case tea.KeyMsg:
		if keymap.Matches(msg.String(), v.keymap.Refresh) {
			docType := v.SelectedType()
			if docType == "" {
				return v, nil
			}
			return v, func() tea.Msg {
				return messages.RefreshRequested{Type: docType}
			}
		}
	}

	var cmd tea.Cmd
	v.table, cmd = v.table.Update(msg)
	return v, cmd
}

// SetStatus replaces the rows, keeping the cursor in range.
func (v *View) SetStatus(schedules []domain.TypeSchedule, stats []domain.TypeStats, err error) {
	v.err = err
	if err != nil {
		return
	}
	v.schedules = schedules
	clear(v.stats)
	for _, s := range stats {
		v.stats[s.Type] = s
	}
	v.table.SetRows(v.rows())
	if cursor := v.table.Cursor(); cursor >= len(schedules) {
		v.table.SetCursor(max(len(schedules)-1, 0))
	}
}

func (v *View) rows() []table.Row {
	now := v.now()
	rows := make([]table.Row, 0, len(v.schedules))
	for _, s := range v.schedules {
		docs := s.Documents
		if st, ok := v.stats[s.Type]; ok {
			docs = st.Documents
		}
		state := string(s.State)
		if s.State != domain.StateRunning && s.LastError != "" {
			state = "failed"
		}
		rows = append(rows, table.Row{
			s.Type,
			state,
			shortDuration(s.Interval),
			relative(now, s.LastRun),
			relative(now, s.NextRun),
			fmt.Sprint(docs),
			s.LastError,
		})
	}
	return rows
}

// relative formats t as an offset from now, "-" when unset.
func relative(now, t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := t.Sub(now)
	if d < 0 {
		return shortDuration(-d) + " ago"
	}
	return "in " + shortDuration(d)
}

func shortDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	}
}

// SelectedType returns the type under the cursor, or "" when empty.
func (v *View) SelectedType() string {
	row := v.table.SelectedRow()
	if row == nil {
		return ""
	}
	return row[0]
}

// View renders the dashboard.
func (v *View) View() string {
	if v.err != nil {
		return v.styles.Error.Render("Error: " + v.err.Error())
	}
	if len(v.schedules) == 0 {
		return v.styles.Muted.Render("No document types registered")
	}

	published := 0
	for _, s := range v.stats {
		published += s.Documents
	}
	summary := v.styles.Muted.Render(fmt.Sprintf("%d types, %d published documents",
		len(v.schedules), published))

	return lipgloss.JoinVertical(lipgloss.Left, v.table.View(), "", summary)
}

// SetDimensions sizes the table to the terminal.
func (v *View) SetDimensions(width, height int) {
	v.table.SetColumns(columns(width))
	v.table.SetWidth(width)
	v.table.SetHeight(max(height-8, 3))
}

// Schedules returns the rows currently shown.
func (v *View) Schedules() []domain.TypeSchedule {
	return v.schedules
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
