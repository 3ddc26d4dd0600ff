// Package status provides the status bar component for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/tui/styles"
)

// State represents what the bar reports on its left side.
type State string

const (
	StateReady      State = "ready"
	StateSearching  State = "searching"
	StateRefreshing State = "refreshing"
	StateError      State = "error"
	StateResults    State = "results"
)

// Bar displays application status and keybinding hints.
type Bar struct {
	styles   *styles.Styles
	state    State
	message  string
	count    int
	width    int
	bindings []key.Binding
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles:   s,
		state:    StateReady,
		width:    80,
		bindings: km.StatusHelp(),
	}
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()

	padding := max(b.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return b.styles.StatusBar.Width(b.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (b *Bar) renderLeft() string {
	switch b.state {
	case StateSearching:
		return b.styles.Muted.Render("Searching...")
	case StateRefreshing:
		return b.styles.Warning.Render("Refreshing " + b.message + "...")
	case StateError:
		if b.message != "" {
			return b.styles.Error.Render("Error: " + b.message)
		}
		return b.styles.Error.Render("Error")
	case StateResults:
		return b.styles.Normal.Render(fmt.Sprintf("%d results", b.count))
	case StateReady:
	}
	if b.message != "" {
		return b.styles.Normal.Render(b.message)
	}
	return b.styles.Muted.Render("Ready")
}

func (b *Bar) renderRight() string {
	hints := make([]string, 0, len(b.bindings))
	for _, binding := range b.bindings {
		h := binding.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (b *Bar) SetState(state State) {
	b.state = state
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// SetMessage sets the message shown next to the state.
func (b *Bar) SetMessage(message string) {
	b.message = message
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetCount sets the number shown in the results state.
func (b *Bar) SetCount(count int) {
	b.count = count
}

// SetBindings replaces the keybinding hints.
func (b *Bar) SetBindings(bindings []key.Binding) {
	b.bindings = bindings
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// Clear resets the status bar to the ready state.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
	b.count = 0
}
