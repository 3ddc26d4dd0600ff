package status

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestView() *View {
	v := NewView(nil, nil)
	v.now = func() time.Time { return testNow }
	v.SetDimensions(120, 30)
	return v
}

func testSchedules() []domain.TypeSchedule {
	return []domain.TypeSchedule{
		{
			Type:     "api",
			Interval: 10 * time.Minute,
			State:    domain.StateIdle,
			LastRun:  testNow.Add(-2 * time.Minute),
			NextRun:  testNow.Add(8 * time.Minute),
		},
		{
			Type:      "techdocs",
			Interval:  time.Hour,
			State:     domain.StateIdle,
			LastError: "collate: timeout",
		},
	}
}

func TestView_Empty(t *testing.T) {
	v := newTestView()

	assert.Contains(t, v.View(), "No document types registered")
	assert.Empty(t, v.SelectedType())
}

func TestView_StatusLoaded(t *testing.T) {
	v := newTestView()

	v, _ = v.Update(messages.StatusLoaded{
		Schedules: testSchedules(),
		Stats:     []domain.TypeStats{{Type: "api", Documents: 7}},
	})

	require.Len(t, v.Schedules(), 2)
	view := v.View()
	assert.Contains(t, view, "api")
	assert.Contains(t, view, "2m ago")
	assert.Contains(t, view, "in 8m")
	assert.Contains(t, view, "failed")
	assert.Contains(t, view, "collate: timeout")
	assert.Contains(t, view, "2 types, 7 published documents")
	assert.Equal(t, "api", v.SelectedType())
}

func TestView_LoadErrorKeepsRows(t *testing.T) {
	v := newTestView()
	v.SetStatus(testSchedules(), nil, nil)

	v.SetStatus(nil, nil, errors.New("store closed"))

	assert.Contains(t, v.View(), "store closed")
	assert.Len(t, v.Schedules(), 2)
}

func TestView_RefreshSelectedType(t *testing.T) {
	v := newTestView()
	v.SetStatus(testSchedules(), nil, nil)

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "techdocs", v.SelectedType())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.RefreshRequested{Type: "techdocs"}, cmd())
}

func TestView_RefreshWithoutRows(t *testing.T) {
	v := newTestView()

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	assert.Nil(t, cmd)
}

func TestView_CursorClampedOnShrink(t *testing.T) {
	v := newTestView()
	v.SetStatus(testSchedules(), nil, nil)
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})

	v.SetStatus(testSchedules()[:1], nil, nil)
	assert.Equal(t, "api", v.SelectedType())
}

func TestShortDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{0, "-"},
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{3 * time.Hour, "3h"},
		{72 * time.Hour, "3d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, shortDuration(tt.d))
	}
}

func TestRelative(t *testing.T) {
	assert.Equal(t, "-", relative(testNow, time.Time{}))
	assert.Equal(t, "1h ago", relative(testNow, testNow.Add(-time.Hour)))
	assert.Equal(t, "in 45s", relative(testNow, testNow.Add(45*time.Second)))
}
