// Package logger initializes the process-wide zerolog logger.
package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Init initializes a JSON logger writing to stdout. Log level comes from
// the LOG_LEVEL environment variable (trace, debug, info, warn, error).
func Init() zerolog.Logger {
	logger, _ := InitWithOptions("", false)
	return logger
}

// InitWithOptions initializes the logger with the specified options.
// If logFile is non-empty, structured JSON logs are appended there.
// If pretty is true (and logFile is empty), a human-readable ConsoleWriter
// writes to stdout instead.
func InitWithOptions(logFile string, pretty bool) (zerolog.Logger, error) {
	level := parseLogLevel(os.Getenv("LOG_LEVEL"))

	switch {
	case logFile != "":
		//nolint:gosec // G304: User-specified log file path is intentional
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return zerolog.Logger{}, fmt.Errorf("failed to open log file %s: %w", logFile, err)
		}
		return zerolog.New(file).Level(level).With().Timestamp().Logger(), nil
	case pretty:
		out := zerolog.ConsoleWriter{Out: os.Stdout}
		return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
	default:
		return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger(), nil
	}
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "trace":
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}
