// Package search provides the query view for the TUI.
package search

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
)

// View holds a query input above a result list. It is either in input mode
// (keys edit the query) or results mode (keys move the selection).
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	input  *input.SearchInput
	list   *list.ResultList

	searchService driving.SearchService
	ctx           context.Context

	err        error
	searching  bool
	focusInput bool
}

// NewView creates a new search view.
func NewView(s *styles.Styles, km *keymap.KeyMap, searchService driving.SearchService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewSearchInput(s),
		list:          list.NewResultList(s),
		searchService: searchService,
		ctx:           context.Background(),
		focusInput:    true,
	}
}

// WithContext sets the context queries run with.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the cursor blink.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	if v.focusInput {
		switch {
		case keymap.Matches(key, v.keymap.Search):
			query := strings.TrimSpace(v.input.Value())
			v.searching = true
			v.focusInput = false
			v.input.Blur()
			return v, v.performSearch(query)
		case keymap.Matches(key, v.keymap.Back) && len(v.list.Results()) > 0:
			v.focusInput = false
			v.input.Blur()
			return v, nil
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(key, v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(key, v.keymap.Down):
		v.list.MoveDown()
	case keymap.Matches(key, v.keymap.NewSearch), keymap.Matches(key, v.keymap.Back):
		v.focusInput = true
		return v, v.input.Focus()
	}
	return v, nil
}

// performSearch runs the query. An empty query lists published documents.
func (v *View) performSearch(query string) tea.Cmd {
	svc, ctx := v.searchService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.SearchCompleted{Query: query, Err: ErrNoSearchService}
		}
		results, err := svc.Search(ctx, query, domain.SearchOptions{Limit: 50})
		return messages.SearchCompleted{Query: query, Results: results, Err: err}
	}
}

func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	v.searching = false
	if msg.Err != nil {
		v.err = msg.Err
		v.focusInput = true
		v.input.Focus()
		return
	}
	v.err = nil
	v.list.SetResults(msg.Results)
	if len(msg.Results) == 0 {
		v.focusInput = true
		v.input.Focus()
	}
}

// View renders the search view.
func (v *View) View() string {
	sections := []string{v.input.View(), ""}

	switch {
	case v.searching:
		sections = append(sections, v.styles.Muted.Render("Searching..."))
	case v.err != nil:
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()))
	default:
		sections = append(sections, v.list.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-10)
}

// Query returns the current search query.
func (v *View) Query() string {
	return v.input.Value()
}

// Results returns the current search results.
func (v *View) Results() []domain.SearchResult {
	return v.list.Results()
}

// SelectedResult returns the currently selected result.
func (v *View) SelectedResult() *domain.SearchResult {
	return v.list.SelectedResult()
}

// Err returns the last search error, if any.
func (v *View) Err() error {
	return v.err
}

// Searching reports whether a query is in flight.
func (v *View) Searching() bool {
	return v.searching
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
