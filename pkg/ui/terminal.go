package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
)

var (
	neonCyan   = lipgloss.Color("#00FFFF")
	neonGreen  = lipgloss.Color("#39FF14")
	neonYellow = lipgloss.Color("#FFFF00")
	neonOrange = lipgloss.Color("#FF6700")
	neonRed    = lipgloss.Color("#FF3131")
	dimWhite   = lipgloss.Color("#B0B0B0")
)

// Console prints the human-readable progress lines of a run.
// Output is styled when the writer is a color terminal.
type Console struct {
	mu  sync.Mutex
	out io.Writer

	heading lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	dim     lipgloss.Style
	panel   lipgloss.Style
}

// NewConsole creates a console writing to out. plain disables all styling.
func NewConsole(out io.Writer, plain bool) *Console {
	r := lipgloss.NewRenderer(out)
	if plain {
		r.SetColorProfile(termenv.Ascii)
	}
	style := r.NewStyle

	return &Console{
		out:     out,
		heading: style().Foreground(neonCyan).Bold(true),
		success: style().Foreground(neonGreen),
		failure: style().Foreground(neonRed).Bold(true),
		warning: style().Foreground(neonOrange),
		label:   style().Foreground(neonCyan),
		value:   style().Foreground(neonYellow),
		dim:     style().Foreground(dimWhite).Faint(true),
		panel:   style().Border(lipgloss.RoundedBorder()).BorderForeground(neonCyan).Padding(0, 1),
	}
}

// Stdout returns a console on standard output
func Stdout() *Console {
	return NewConsole(os.Stdout, false)
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}

// Line prints an unstyled line
func (c *Console) Line(format string, args ...interface{}) {
	c.println(fmt.Sprintf(format, args...))
}

// Heading prints a section heading
func (c *Console) Heading(format string, args ...interface{}) {
	c.println(c.heading.Render(fmt.Sprintf(format, args...)))
}

// Success prints a success line
func (c *Console) Success(format string, args ...interface{}) {
	c.println(c.success.Render(fmt.Sprintf(format, args...)))
}

// Failure prints a failure line
func (c *Console) Failure(format string, args ...interface{}) {
	c.println(c.failure.Render(fmt.Sprintf(format, args...)))
}

// Warning prints a warning line
func (c *Console) Warning(format string, args ...interface{}) {
	c.println(c.warning.Render(fmt.Sprintf(format, args...)))
}

// Dim prints a de-emphasized line
func (c *Console) Dim(format string, args ...interface{}) {
	c.println(c.dim.Render(fmt.Sprintf(format, args...)))
}

// Info prints a label: value pair
func (c *Console) Info(label, value string) {
	c.println(fmt.Sprintf("%s: %s", c.label.Render(label), c.value.Render(value)))
}

// Panel prints key/value rows inside a bordered box, keys sorted
func (c *Console) Panel(title string, rows map[string]string) {
	keys := make([]string, 0, len(rows))
	width := 0
	for k := range rows {
		keys = append(keys, k)
		if len(k) > width {
			width = len(k)
		}
	}
	sort.Strings(keys)

	lines := []string{c.heading.Render(title)}
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s  %s", c.label.Render(padRight(k, width)), c.value.Render(rows[k])))
	}
	c.println(c.panel.Render(strings.Join(lines, "\n")))
}

// Table prints rows under headers
func (c *Console) Table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(c.dim).
		Headers(headers...).
		Rows(rows...)
	c.println(t.Render())
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
