// File: internal/logger/logger.go
package logger

import (
	"io"
	"log/slog"
	"os"
	"strconv"
)

// DebugEnv enables debug logging when set to a true value (1, true, yes)
const DebugEnv = "REPLISYNC_DEBUG"

// Creates the process logger writing to w, normally stderr so logs never
// interleave with the operator-facing messages written to stdout.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	return newLogger(w, debug || debugFromEnv())
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)

	slog.SetDefault(logger)
	return logger
}

func debugFromEnv() bool {
	v := os.Getenv(DebugEnv)
	if v == "yes" {
		return true
	}
	enabled, err := strconv.ParseBool(v)
	return err == nil && enabled
}
