package main

import (
	"io"
	"log/slog"

	"github.com/pkg/errors"
)

var logger = slog.New(slog.DiscardHandler)

// ResolveLogLevel maps a level name to an slog level.
func ResolveLogLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, errors.Errorf("invalid log level: %s", level)
	}
}

// InitLogger installs a text logger writing to w.
func InitLogger(w io.Writer, level string) error {
	logLevel, err := ResolveLogLevel(level)
	if err != nil {
		return err
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger = slog.New(handler)
	return nil
}
