// Package render turns model output into terminal text. Markdown is
// rendered with glamour when stdout is a terminal (or a style is forced);
// otherwise text passes through unchanged.
package render

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"

	"github.com/anschmieg/gpt-cli/pkg/debug"
)

// Options configures a Renderer.
type Options struct {
	// TTY reports whether output goes to a terminal. Without a TTY and
	// without an explicit Style, markdown is printed raw.
	TTY bool

	// Style names a glamour standard style ("dark", "light", "notty",
	// "ascii", ...). Empty selects the auto style on a TTY.
	Style string

	// WordWrap is the wrap width; zero keeps glamour's default.
	WordWrap int
}

// Renderer renders markdown for the terminal. A nil *Renderer is valid and
// renders nothing but newline normalization.
type Renderer struct {
	term *glamour.TermRenderer
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// NewRenderer creates a Renderer. If glamour cannot be initialized the
// renderer degrades to plain text.
func NewRenderer(opts Options) *Renderer {
	if !opts.TTY && opts.Style == "" {
		return &Renderer{}
	}

	termOpts := []glamour.TermRendererOption{}
	if opts.Style == "" {
		termOpts = append(termOpts, glamour.WithAutoStyle())
	} else {
		termOpts = append(termOpts, glamour.WithStandardStyle(opts.Style))
	}
	if opts.WordWrap > 0 {
		termOpts = append(termOpts, glamour.WithWordWrap(opts.WordWrap))
	}

	term, err := glamour.NewTermRenderer(termOpts...)
	if err != nil {
		debug.Log("engine", "markdown renderer unavailable, printing plain text", "error", err)
		return &Renderer{}
	}
	return &Renderer{term: term}
}

// Enabled reports whether markdown is actually rendered.
func (r *Renderer) Enabled() bool {
	return r != nil && r.term != nil
}

// Render renders markdown. Render errors fall back to the raw text. The
// result always ends with a newline unless it is empty.
func (r *Renderer) Render(markdown string) string {
	if markdown == "" {
		return ""
	}
	if r.Enabled() {
		if out, err := r.term.Render(markdown); err == nil {
			return EnsureNewline(out)
		}
	}
	return EnsureNewline(markdown)
}

// EnsureNewline appends "\n" to a non-empty string that lacks one.
func EnsureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
