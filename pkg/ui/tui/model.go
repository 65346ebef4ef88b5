package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
)

const maxBarWidth = 60

// Model is the live view of one run: the current phase, a progress bar
// over its targets and running counts
type Model struct {
	spinner spinner.Model
	bar     progress.Model

	username  string
	dryRun    bool
	startedAt time.Time

	phase   string
	total   int
	done    int
	ok      int
	failed  int
	last    string
	waiting bool

	// totals across phases
	succeeded int
	failures  int

	width    int
	finished bool
	quitting bool
	onQuit   func()
	now      func() time.Time
}

// NewModel creates the view for username. onQuit is called when the user
// asks to stop the run.
func NewModel(username string, dryRun bool, onQuit func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = headingStyle

	bar := progress.New(progress.WithGradient(string(neonMagenta), string(neonGreen)))
	bar.Width = 40

	return Model{
		spinner:   s,
		bar:       bar,
		username:  username,
		dryRun:    dryRun,
		startedAt: time.Now(),
		onQuit:    onQuit,
		now:       time.Now,
	}
}

// Percent is the completed fraction of the current phase
func (m Model) Percent() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

// Counts returns successful and failed targets across all phases
func (m Model) Counts() (succeeded, failed int) {
	return m.succeeded, m.failures
}

func (m Model) elapsed() time.Duration {
	return m.now().Sub(m.startedAt).Round(time.Second)
}
