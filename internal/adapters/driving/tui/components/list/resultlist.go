// Package list provides the search result list for the TUI.
package list

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// linesPerResult is the rendered height of one result.
const linesPerResult = 3

// ResultList displays search results in a navigable list.
type ResultList struct {
	results  []domain.SearchResult
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewResultList creates a new result list component.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ResultList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// View renders the visible window of results around the selection.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	lines := make([]string, 0, len(r.results)+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Results (%d)", len(r.results))), "")

	visible := max((r.height-2)/linesPerResult, 1)
	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := min(start+visible, len(r.results))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderResult(i, &r.results[i]))
	}
	return strings.Join(lines, "\n")
}

// renderResult formats the title and score, the type and location, and a
// one-line preview of the text.
func (r *ResultList) renderResult(index int, result *domain.SearchResult) string {
	doc := result.Document
	titleWidth := max(r.width-20, 10)
	title := clip(doc.Title, titleWidth)
	score := fmt.Sprintf("%.2f", result.Score)

	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(fmt.Sprintf("> %-*s  %s", titleWidth, title, score))
	} else {
		titleLine = r.styles.Normal.Render(fmt.Sprintf("  %-*s  ", titleWidth, title)) +
			r.styles.Muted.Render(score)
	}

	where := r.styles.Subtitle.Render("    "+result.Type) + " " +
		r.styles.Muted.Render(clip(doc.Location, max(r.width-len(result.Type)-6, 10)))

	preview := strings.Join(strings.Fields(doc.Text), " ")
	previewLine := r.styles.Muted.Render("    " + clip(preview, max(r.width-6, 20)))

	return titleLine + "\n" + where + "\n" + previewLine
}

// clip shortens s to n runes, marking the cut with an ellipsis.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// SetResults replaces the results and selects the first.
func (r *ResultList) SetResults(results []domain.SearchResult) {
	r.results = results
	r.selected = 0
}

// Results returns the current results.
func (r *ResultList) Results() []domain.SearchResult {
	return r.results
}

// Selected returns the index of the selected result.
func (r *ResultList) Selected() int {
	return r.selected
}

// SelectedResult returns the currently selected result, or nil if none.
func (r *ResultList) SelectedResult() *domain.SearchResult {
	if r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// MoveUp moves selection up.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ResultList) MoveDown() {
	if r.selected < len(r.results)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}
