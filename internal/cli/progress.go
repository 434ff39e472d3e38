package cli

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"
)

// startSpinner begins a spinner animation when stdout is an interactive
// terminal and progress display is enabled. The returned function stops
// the animation; it is a no-op otherwise.
func startSpinner(msg string) func() {
	if cfg == nil || !cfg.ShowProgress || cfg.Quiet {
		return func() {}
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Writer = os.Stderr // keep animation off stdout so output stays pipeable
	s.Suffix = " " + msg
	s.Start()
	return s.Stop
}
