// Package logging provides structured logging for the CLI. Configuration
// comes from environment variables so the flag surface stays focused on
// analysis options.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// NewLoggerWithWriter creates a logger writing to w.
func NewLoggerWithWriter(w io.Writer) *log.Logger {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})

	switch os.Getenv("STRINGY_LOG_LEVEL") {
	case "debug":
		lg.SetLevel(log.DebugLevel)
	case "warn":
		lg.SetLevel(log.WarnLevel)
	case "error":
		lg.SetLevel(log.ErrorLevel)
	default:
		lg.SetLevel(log.InfoLevel)
	}

	prefix := os.Getenv("STRINGY_LOG_PREFIX")
	if prefix == "" {
		prefix = "stringy"
	}
	return lg.WithPrefix(prefix)
}

// NewLogger creates a stderr logger configured from the environment.
// STRINGY_LOG_LEVEL: debug, info, warn, error (default: info).
// STRINGY_LOG_PREFIX: prefix for log messages (default: "stringy").
func NewLogger() *log.Logger {
	return NewLoggerWithWriter(os.Stderr)
}

// IsDebug reports whether debug logging is enabled.
func IsDebug() bool {
	return os.Getenv("STRINGY_LOG_LEVEL") == "debug"
}
