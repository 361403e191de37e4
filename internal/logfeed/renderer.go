package logfeed

import (
	"io"
	"strings"

	"github.com/pterm/pterm"
)

// Renderer prints log entries to a console writer.
type Renderer struct {
	w io.Writer
	// width truncates long lines when positive
	width int
}

// NewRenderer creates a renderer writing to w.
func NewRenderer(w io.Writer) *Renderer { return &Renderer{w: w} }

// WithWidth limits rendered lines to n runes.
func (r *Renderer) WithWidth(n int) *Renderer {
	r.width = n
	return r
}

// Render prints a single entry.
func (r *Renderer) Render(e Entry) {
	pterm.Fprintln(r.w, r.Format(e))
}

// Format returns the styled line for e without printing it.
func (r *Renderer) Format(e Entry) string {
	stamp := pterm.NewStyle(pterm.FgGray).Sprint("[" + e.Time.Format("15:04:05") + "]")
	text := e.Text
	if r.width > 12 {
		text = clip(text, r.width-11)
	}
	return stamp + " " + styleFor(text).Sprint(text)
}

func styleFor(text string) *pterm.Style {
	switch {
	case strings.HasPrefix(text, "Error:"), strings.HasPrefix(text, "FAILED"),
		strings.HasPrefix(text, "SYS ERROR"), strings.HasPrefix(text, "❌"):
		return pterm.NewStyle(pterm.FgRed)
	case strings.HasPrefix(text, "SUCCESS"):
		return pterm.NewStyle(pterm.FgGreen, pterm.Bold)
	case strings.HasSuffix(text, "..."):
		return pterm.NewStyle(pterm.FgLightCyan)
	}
	return pterm.NewStyle(pterm.FgDefault)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
