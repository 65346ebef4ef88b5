package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the status block below the printed lines. It is empty once
// the run is over so that only the printed lines remain.
func (m Model) View() string {
	if m.finished || m.quitting {
		return ""
	}

	title := " followsync · " + m.username + " "
	if m.dryRun {
		title += "[dry run] "
	}

	sections := []string{
		titleStyle.Render(title),
		m.renderPhase(),
		m.renderStats(),
		helpStyle.Render("q: stop the run"),
	}
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) renderPhase() string {
	if m.phase == "" {
		return fmt.Sprintf("%s Fetching followers and following...", m.spinner.View())
	}

	status := fmt.Sprintf("%s %s %d/%d", m.spinner.View(), m.phase, m.done, m.total)
	if m.waiting {
		status += " " + warningStyle.Render("rate limited, waiting")
	} else if m.last != "" {
		status += " " + dimStyle.Render("last: "+m.last)
	}
	return status + "\n" + m.bar.ViewAs(m.Percent())
}

func (m Model) renderStats() string {
	parts := []string{
		stat("Done", successStyle.Render(fmt.Sprint(m.succeeded))),
		stat("Failed", errorStyle.Render(fmt.Sprint(m.failures))),
		stat("Elapsed", statsValueStyle.Render(m.elapsed().String())),
	}
	return strings.Join(parts, "  ")
}

func stat(label, value string) string {
	return statsLabelStyle.Render(label+":") + " " + value
}
