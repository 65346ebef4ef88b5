// Package tui renders a live status view of a run in the terminal while the
// per-target lines scroll above it.
package tui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// TUI drives a bubbletea program for one run
type TUI struct {
	program *tea.Program
	done    chan error

	stopOnce sync.Once
	stopErr  error
}

// New creates the view. Output goes to out; onQuit is called when the user
// presses q or ctrl+c.
func New(username string, dryRun bool, out io.Writer, onQuit func()) *TUI {
	model := NewModel(username, dryRun, onQuit)
	return &TUI{
		program: tea.NewProgram(model, tea.WithOutput(out)),
		done:    make(chan error, 1),
	}
}

// Start runs the program in the background
func (t *TUI) Start() {
	go func() {
		_, err := t.program.Run()
		t.done <- err
	}()
}

// Stop ends the program and waits for the terminal to be restored. Only the
// first call has an effect.
func (t *TUI) Stop() error {
	t.stopOnce.Do(func() {
		t.program.Send(DoneMsg{})
		t.stopErr = <-t.done
	})
	return t.stopErr
}

// PhaseStarted resets the progress bar for a phase of total targets
func (t *TUI) PhaseStarted(name string, total int) {
	t.program.Send(PhaseStartMsg{Name: name, Total: total})
}

// TargetDone advances the progress bar
func (t *TUI) TargetDone(target string, ok bool) {
	t.program.Send(TargetDoneMsg{Target: target, OK: ok})
}

func (t *TUI) println(s string) {
	t.program.Println(s)
}

func (t *TUI) Line(format string, args ...interface{}) {
	t.println(fmt.Sprintf(format, args...))
}

func (t *TUI) Heading(format string, args ...interface{}) {
	t.println(headingStyle.Render(fmt.Sprintf(format, args...)))
}

func (t *TUI) Success(format string, args ...interface{}) {
	t.println(successStyle.Render(fmt.Sprintf(format, args...)))
}

func (t *TUI) Failure(format string, args ...interface{}) {
	t.println(errorStyle.Render(fmt.Sprintf(format, args...)))
}

func (t *TUI) Warning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if strings.HasPrefix(msg, "Rate limit hit") {
		t.program.Send(RateLimitMsg{})
	}
	t.println(warningStyle.Render(msg))
}
