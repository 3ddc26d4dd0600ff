package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/tui/views/search"
	statusview "github.com/custodia-labs/sercha-indexer/internal/adapters/driving/tui/views/status"
)

// DefaultTickInterval is how often the dashboard reloads.
const DefaultTickInterval = 2 * time.Second

// App is the dashboard following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	statusView *statusview.View
	searchView *search.View
	statusbar  *status.Bar

	currentView messages.ViewType
	tick        time.Duration

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		statusView:  statusview.NewView(s, km),
		searchView:  search.NewView(s, km, ports.Search),
		statusbar:   status.NewBar(s, km),
		currentView: messages.ViewStatus,
		tick:        DefaultTickInterval,
	}, nil
}

// WithContext sets the context used for queries and refreshes.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	return a
}

// WithTickInterval changes how often the dashboard reloads.
func (a *App) WithTickInterval(d time.Duration) *App {
	a.tick = d
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("sercha-indexer"),
		a.loadStatus(),
		a.scheduleTick(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case messages.Tick:
		return a, tea.Batch(a.loadStatus(), a.scheduleTick())

	case messages.StatusLoaded:
		a.statusView, cmd = a.statusView.Update(msg)
		if msg.Err != nil {
			a.statusbar.SetState(status.StateError)
			a.statusbar.SetMessage(msg.Err.Error())
		}
		return a, cmd

	case messages.RefreshRequested:
		a.statusbar.SetState(status.StateRefreshing)
		a.statusbar.SetMessage(msg.Type)
		return a, a.refresh(msg.Type)

	case messages.RefreshCompleted:
		a.handleRefreshCompleted(msg)
		return a, a.loadStatus()

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.syncSearchBar()
		return a, cmd

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.ErrorOccurred:
		a.statusbar.SetState(status.StateError)
		a.statusbar.SetMessage(msg.Err.Error())
		return a, nil
	}

	if a.currentView == messages.ViewSearch {
		a.searchView, cmd = a.searchView.Update(msg)
	}
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+c" {
		return tea.Quit
	}
	if keymap.Matches(key, a.keymap.Switch) {
		next := messages.ViewSearch
		if a.currentView == messages.ViewSearch {
			next = messages.ViewStatus
		}
		return a.switchTo(next)
	}

	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewSearch:
		if !a.searchView.InputFocused() && keymap.Matches(key, a.keymap.Quit) {
			return tea.Quit
		}
		a.searchView, cmd = a.searchView.Update(msg)
		if a.searchView.Searching() {
			a.statusbar.SetState(status.StateSearching)
		}
		a.syncSearchBar()
	default:
		switch {
		case keymap.Matches(key, a.keymap.Quit):
			return tea.Quit
		case keymap.Matches(key, a.keymap.Reload):
			return a.loadStatus()
		}
		a.statusView, cmd = a.statusView.Update(msg)
	}
	return cmd
}

func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	a.currentView = view
	a.statusbar.Clear()
	if view == messages.ViewSearch {
		a.syncSearchBar()
		return a.searchView.Init()
	}
	a.statusbar.SetBindings(a.keymap.StatusHelp())
	return a.loadStatus()
}

func (a *App) syncSearchBar() {
	switch {
	case a.searchView.Searching():
		a.statusbar.SetState(status.StateSearching)
	case a.searchView.Err() != nil:
		a.statusbar.SetState(status.StateError)
		a.statusbar.SetMessage(a.searchView.Err().Error())
	case len(a.searchView.Results()) > 0:
		a.statusbar.SetState(status.StateResults)
		a.statusbar.SetCount(len(a.searchView.Results()))
	default:
		a.statusbar.Clear()
	}
	if a.searchView.InputFocused() {
		a.statusbar.SetBindings(a.keymap.SearchHelp())
	} else {
		a.statusbar.SetBindings(a.keymap.ResultsHelp())
	}
}

func (a *App) handleRefreshCompleted(msg messages.RefreshCompleted) {
	if msg.Err != nil {
		a.statusbar.SetState(status.StateError)
		a.statusbar.SetMessage(fmt.Sprintf("%s: %v", msg.Result.Type, msg.Err))
		return
	}
	a.statusbar.SetState(status.StateReady)
	a.statusbar.SetMessage(fmt.Sprintf("%s: published %d documents", msg.Result.Type, msg.Result.Documents))
}

// loadStatus reads schedules and stats off the event loop.
func (a *App) loadStatus() tea.Cmd {
	ctx, ports := a.ctx, a.ports
	return func() tea.Msg {
		schedules := ports.Scheduler.Status()
		stats, err := ports.Search.Stats(ctx)
		return messages.StatusLoaded{Schedules: schedules, Stats: stats, Err: err}
	}
}

func (a *App) refresh(docType string) tea.Cmd {
	ctx, scheduler := a.ctx, a.ports.Scheduler
	return func() tea.Msg {
		result, err := scheduler.Trigger(ctx, docType)
		if result.Type == "" {
			result.Type = docType
		}
		return messages.RefreshCompleted{Result: result, Err: err}
	}
}

func (a *App) scheduleTick() tea.Cmd {
	if a.tick <= 0 {
		return nil
	}
	return tea.Tick(a.tick, func(t time.Time) tea.Msg {
		return messages.Tick{At: t}
	})
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	if a.currentView == messages.ViewSearch {
		body = a.searchView.View()
	} else {
		body = a.statusView.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.renderHeader(),
		"",
		body,
		"",
		a.statusbar.View(),
	)
}

func (a *App) renderHeader() string {
	tabs := make([]string, 0, 2)
	for _, v := range []messages.ViewType{messages.ViewStatus, messages.ViewSearch} {
		label := v.String()
		if v == a.currentView {
			tabs = append(tabs, a.styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, a.styles.Tab.Render(label))
		}
	}
	title := a.styles.Title.Render("sercha-indexer") + "  "
	return lipgloss.JoinHorizontal(lipgloss.Top, append([]string{title}, tabs...)...)
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Ready returns whether the app has been sized.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.statusView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.statusbar.SetWidth(width)
}
