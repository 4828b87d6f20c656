// Package logx has the small stderr logging helpers used throughout headlamp,
// in the teacher's internal/log.go idiom: unadorned fmt.Fprintf to stderr,
// gated by verbosity, with a single os.Exit call site for fatal errors.
package logx

import (
	"fmt"
	"os"
)

// Verbose controls whether Debug messages are printed. Set from
// --verbose/TEST_CLI_DEBUG at startup.
var Verbose bool

// UseEmojis controls whether log lines get an emoji prefix, matching the
// teacher's cfg.UseEmojis toggle.
var UseEmojis = true

func prefix(plain, emoji string) string {
	if UseEmojis {
		return emoji
	}
	return plain
}

// Fatal logs an error and exits the program with status 1, per spec.md §7
// error kind 4 ("Fatal").
func Fatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "%s %s: %v\n", prefix("Fatal", "❌"), msg, err)
	os.Exit(1)
}

// Warn logs a warning, treated as an auxiliary soft failure per spec.md §7
// error kind 2.
func Warn(msg string, err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s %s: %v\n", prefix("Warn", "⚠️"), msg, err)
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", prefix("Warn", "⚠️"), msg)
}

// Debug logs a message only when Verbose is set, matching spec.md §7's
// "logged under verbose" handling for auxiliary-tool failures.
func Debug(format string, args ...any) {
	if !Verbose {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", prefix("Debug", "\U0001f50d"), fmt.Sprintf(format, args...))
}

// Info logs an unconditional informational line to stdout.
func Info(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}
