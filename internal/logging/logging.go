// Package logging builds the stderr logger shared by lit commands.
package logging

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// New creates a logger writing to w at the given level name.
func New(w io.Writer, level string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           levelFromString(level),
		ReportTimestamp: false,
	})
}

// Level returns the level name for the verbose flag.
func Level(verbose bool) string {
	if verbose {
		return "debug"
	}
	return "info"
}

func levelFromString(value string) log.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return log.ErrorLevel
	case "warn", "warning":
		return log.WarnLevel
	case "debug":
		return log.DebugLevel
	default:
		return log.InfoLevel
	}
}
