// Package ux provides terminal output styling for the graphboard CLI.
package ux

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Palette.
var (
	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorMuted   = lipgloss.Color("#5C7A84")
	ColorAccent  = lipgloss.Color("#20B9B4")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
	Border  lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Bold(true).Foreground(ColorError),
	Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
	Header:  lipgloss.NewStyle().Bold(true).Foreground(ColorAccent).Padding(0, 1),
	Cell:    lipgloss.NewStyle().Padding(0, 1),
	Border:  lipgloss.NewStyle().Foreground(ColorMuted),
}

// Prefixes distinguish outcomes even without color.
const (
	PrefixSuccess = "✔"
	PrefixWarning = "⚠"
	PrefixError   = "✖ error:"
)

// Printer writes progress to Out and failures to Err. Styling is applied
// only when the destination is a terminal.
type Printer struct {
	Out io.Writer
	Err io.Writer

	styleOut bool
	styleErr bool
}

// NewPrinter creates a Printer over the given writers.
func NewPrinter(out, errw io.Writer) *Printer {
	return &Printer{
		Out:      out,
		Err:      errw,
		styleOut: IsTerminal(out),
		styleErr: IsTerminal(errw),
	}
}

// Default prints to stdout and stderr.
func Default() *Printer {
	return NewPrinter(os.Stdout, os.Stderr)
}

// IsTerminal reports whether w is a file attached to a TTY.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Styled reports whether stdout output is styled.
func (p *Printer) Styled() bool { return p.styleOut }

func render(on bool, s lipgloss.Style, text string) string {
	if !on {
		return text
	}
	return s.Render(text)
}

// Success prints a success line on stdout.
func (p *Printer) Success(format string, args ...any) {
	_, _ = fmt.Fprintf(p.Out, "%s %s\n", render(p.styleOut, Styles.Success, PrefixSuccess), fmt.Sprintf(format, args...))
}

// Info prints a plain line on stdout.
func (p *Printer) Info(format string, args ...any) {
	_, _ = fmt.Fprintf(p.Out, "%s\n", fmt.Sprintf(format, args...))
}

// Warning prints a warning line on stderr.
func (p *Printer) Warning(format string, args ...any) {
	_, _ = fmt.Fprintf(p.Err, "%s %s\n", render(p.styleErr, Styles.Warning, PrefixWarning), fmt.Sprintf(format, args...))
}

// Error prints err on stderr behind the error prefix.
func (p *Printer) Error(err error) {
	if err == nil {
		return
	}
	_, _ = fmt.Fprintf(p.Err, "%s %v\n", render(p.styleErr, Styles.Error, PrefixError), err)
}

// Title prints a heading on stdout.
func (p *Printer) Title(text string) {
	_, _ = fmt.Fprintln(p.Out, render(p.styleOut, Styles.Title, text))
}
