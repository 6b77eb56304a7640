package logger

import (
	"io"
	"log/slog"
	"strings"

	"github.com/lmittmann/tint"
)

// Configure installs the default slog logger. The dev env gets colourised
// tint output, anything else structured JSON.
func Configure(w io.Writer, levelStr string, env string) *slog.Logger {
	level := parseLogLevel(levelStr)
	var handler slog.Handler

	if env == "dev" || env == "development" {
		handler = tint.NewHandler(w, &tint.Options{Level: level})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
