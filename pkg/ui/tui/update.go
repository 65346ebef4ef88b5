package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// PhaseStartMsg announces a phase and its number of targets
type PhaseStartMsg struct {
	Name  string
	Total int
}

// TargetDoneMsg reports one processed target
type TargetDoneMsg struct {
	Target string
	OK     bool
}

// RateLimitMsg is sent when GitHub asked us to slow down
type RateLimitMsg struct{}

// DoneMsg ends the view
type DoneMsg struct{}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles all messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(msg.Width-4, maxBarWidth)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case PhaseStartMsg:
		m.phase = msg.Name
		m.total = msg.Total
		m.done, m.ok, m.failed = 0, 0, 0
		m.last = ""
		m.waiting = false
		return m, nil

	case TargetDoneMsg:
		m.done++
		m.last = msg.Target
		m.waiting = false
		if msg.OK {
			m.ok++
			m.succeeded++
		} else {
			m.failed++
			m.failures++
		}
		return m, nil

	case RateLimitMsg:
		m.waiting = true
		return m, nil

	case DoneMsg:
		m.finished = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c", "esc":
		if !m.quitting && m.onQuit != nil {
			m.onQuit()
		}
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}
