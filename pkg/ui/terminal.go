package ui

import (
	"fmt"
	"io"
	"os"
)

// Banner is printed at the start of interactive runs
const Banner = `
  ┌─────────────────────────────────────────┐
  │  procaredl · Procare photo archiver     │
  └─────────────────────────────────────────┘
`

// Output receives human-oriented messages. It defaults to stderr because
// stdout carries progress lines.
var Output io.Writer = os.Stderr

var (
	quietMode bool
	noColor   bool
)

// SetQuietMode suppresses everything but errors
func SetQuietMode(quiet bool) { quietMode = quiet }

// IsQuietMode reports whether quiet mode is on
func IsQuietMode() bool { return quietMode }

// SetNoColor disables ANSI colour codes
func SetNoColor(disabled bool) { noColor = disabled }

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

func colorize(colorString string) func(string) string {
	return func(text string) string {
		if noColor {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// PrintBanner prints the banner unless quiet
func PrintBanner() {
	if quietMode {
		return
	}
	fmt.Fprint(Output, Cyan(Banner))
}

// PrintError prints an error message in red. Errors are shown even in
// quiet mode.
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	fmt.Fprintln(Output, Red(msg))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if quietMode {
		return
	}
	fmt.Fprintln(Output, Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	if quietMode {
		return
	}
	fmt.Fprintf(Output, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if quietMode {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	fmt.Fprintln(Output, Yellow(msg))
}

// PrintSummary prints the final counters of a run
func PrintSummary(s Snapshot) {
	if quietMode {
		return
	}
	fmt.Fprintf(Output, "%s downloaded %s · skipped %s · failed %s · metadata errors %s · %s\n",
		Magenta("[DONE]"),
		Green(fmt.Sprint(s.Downloaded)),
		Dim(fmt.Sprint(s.Skipped)),
		Red(fmt.Sprint(s.Failed)),
		Yellow(fmt.Sprint(s.MetadataFailed)),
		s.Elapsed.Round(1e9))
}
