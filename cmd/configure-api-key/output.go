package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// errReported marks a failure whose message the command already printed.
var errReported = errors.New("reported")

type printer struct {
	w    io.Writer
	ok   lipgloss.Style
	fail lipgloss.Style
	hint lipgloss.Style
}

// newPrinter styles for w's own terminal; plain text when w is not one.
func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:    w,
		ok:   r.NewStyle().Foreground(lipgloss.Color("2")),
		fail: r.NewStyle().Foreground(lipgloss.Color("1")),
		hint: r.NewStyle().Faint(true),
	}
}

func (p *printer) success(format string, args ...any) {
	fmt.Fprintln(p.w, p.ok.Render("✓")+" "+fmt.Sprintf(format, args...))
}

func (p *printer) failure(format string, args ...any) {
	fmt.Fprintln(p.w, p.fail.Render("✗")+" "+fmt.Sprintf(format, args...))
}

func (p *printer) note(format string, args ...any) {
	fmt.Fprintln(p.w, p.hint.Render(fmt.Sprintf(format, args...)))
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

