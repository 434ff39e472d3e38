// Package diag provides the append-only diagnostics sink consumed verbatim
// by the CLI and the test suite. Line wording is a compatibility contract:
// failures carry the ❌ prefix and a fully successful data load reports
// "data validation successful".
package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Glyphs prefixing success and failure lines.
const (
	SuccessGlyph = "✅"
	FailGlyph    = "❌"
)

// Reporter accumulates leveled, human-readable diagnostic lines.
type Reporter struct {
	w       io.Writer
	verbose bool
	colored bool

	failures int
}

// New returns a reporter writing to w. Verbose enables Debugf output.
func New(w io.Writer, verbose bool) *Reporter {
	return &Reporter{w: w, verbose: verbose}
}

// Nop returns a reporter that discards everything.
func Nop() *Reporter {
	return New(io.Discard, false)
}

// EnableColor turns on terminal coloring of the glyph lines. The glyphs
// themselves are emitted either way; only the rendering changes.
func (r *Reporter) EnableColor() *Reporter {
	r.colored = true
	return r
}

// Successf appends a ✅-prefixed line.
func (r *Reporter) Successf(format string, args ...any) {
	glyph := SuccessGlyph
	if r.colored {
		glyph = color.GreenString(SuccessGlyph)
	}
	fmt.Fprintf(r.w, "%s %s\n", glyph, fmt.Sprintf(format, args...))
}

// Failf appends a ❌-prefixed line and counts the failure.
func (r *Reporter) Failf(format string, args ...any) {
	r.failures++
	glyph := FailGlyph
	if r.colored {
		glyph = color.RedString(FailGlyph)
	}
	fmt.Fprintf(r.w, "%s %s\n", glyph, fmt.Sprintf(format, args...))
}

// Infof appends an unprefixed line.
func (r *Reporter) Infof(format string, args ...any) {
	fmt.Fprintf(r.w, "%s\n", fmt.Sprintf(format, args...))
}

// Debugf appends a line only when verbose reporting is enabled.
func (r *Reporter) Debugf(format string, args ...any) {
	if !r.verbose {
		return
	}
	fmt.Fprintf(r.w, "%s\n", fmt.Sprintf(format, args...))
}

// Failures returns the number of failure lines emitted so far.
func (r *Reporter) Failures() int { return r.failures }
