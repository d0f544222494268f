package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Services log with
// InfoContext/WarnContext/ErrorContext and attach request_id attributes.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
