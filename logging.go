package main

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// setupLogging installs the default slog logger and returns it.
// format is "json" or "text"; anything else falls back to text.
func setupLogging(level, format string, out io.Writer) *slog.Logger {
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
