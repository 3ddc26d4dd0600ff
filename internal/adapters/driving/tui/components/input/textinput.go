// Package input provides the query input component for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/tui/styles"
)

// minWidth is the narrowest the text field gets.
const minWidth = 20

// SearchInput wraps a bubbles textinput with the query label.
type SearchInput struct {
	textinput textinput.Model
	styles    *styles.Styles
}

// NewSearchInput creates a focused query input.
func NewSearchInput(s *styles.Styles) *SearchInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Search published documents..."
	ti.CharLimit = 256
	ti.Width = 50
	ti.Focus()

	return &SearchInput{textinput: ti, styles: s}
}

// Init starts the cursor blink.
func (s *SearchInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	var cmd tea.Cmd
	s.textinput, cmd = s.textinput.Update(msg)
	return s, cmd
}

// View renders the labelled input.
func (s *SearchInput) View() string {
	label := s.styles.Title.Render("Query: ")
	field := s.styles.InputField.Render(s.textinput.View())
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Value returns the current input value.
func (s *SearchInput) Value() string {
	return s.textinput.Value()
}

// SetValue sets the input value.
func (s *SearchInput) SetValue(value string) {
	s.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (s *SearchInput) Focus() tea.Cmd {
	return s.textinput.Focus()
}

// Blur removes focus from the input.
func (s *SearchInput) Blur() {
	s.textinput.Blur()
}

// Focused returns whether the input is focused.
func (s *SearchInput) Focused() bool {
	return s.textinput.Focused()
}

// SetWidth fits the field into width, leaving room for the label.
func (s *SearchInput) SetWidth(width int) {
	s.textinput.Width = max(width-12, minWidth)
}
