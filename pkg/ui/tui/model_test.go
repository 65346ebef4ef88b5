package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestModel_TracksPhases(t *testing.T) {
	m := NewModel("octo", false, nil)

	m, _ = update(t, m, PhaseStartMsg{Name: "Following back", Total: 4})
	assert.Equal(t, 0.0, m.Percent())

	m, _ = update(t, m, TargetDoneMsg{Target: "a", OK: true})
	m, _ = update(t, m, TargetDoneMsg{Target: "b", OK: false})
	assert.Equal(t, 0.5, m.Percent())
	assert.Equal(t, "b", m.last)

	m, _ = update(t, m, PhaseStartMsg{Name: "Unfollowing", Total: 1})
	assert.Equal(t, 0.0, m.Percent())
	m, _ = update(t, m, TargetDoneMsg{Target: "d", OK: true})
	assert.Equal(t, 1.0, m.Percent())

	succeeded, failed := m.Counts()
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 1, failed)
}

func TestModel_RateLimitClearsOnNextTarget(t *testing.T) {
	m := NewModel("octo", false, nil)
	m, _ = update(t, m, PhaseStartMsg{Name: "Unfollowing", Total: 2})
	m, _ = update(t, m, RateLimitMsg{})
	assert.True(t, m.waiting)
	assert.Contains(t, m.View(), "rate limited")

	m, _ = update(t, m, TargetDoneMsg{Target: "x", OK: true})
	assert.False(t, m.waiting)
}

func TestModel_QuitCallsOnQuitOnce(t *testing.T) {
	calls := 0
	m := NewModel("octo", false, func() { calls++ })

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})

	assert.Equal(t, 1, calls)
	assert.Empty(t, m.View())
}

func TestModel_View(t *testing.T) {
	m := NewModel("octo", true, nil)
	m.now = func() time.Time { return m.startedAt.Add(90 * time.Second) }

	view := m.View()
	assert.Contains(t, view, "octo")
	assert.Contains(t, view, "[dry run]")
	assert.Contains(t, view, "Fetching followers and following")
	assert.Contains(t, view, "1m30s")

	m, _ = update(t, m, PhaseStartMsg{Name: "Following back", Total: 3})
	assert.Contains(t, m.View(), "Following back 0/3")

	m, cmd := update(t, m, DoneMsg{})
	require.NotNil(t, cmd)
	assert.Empty(t, m.View())
}
