package plog

import (
	"context"
	"io"
	"log/slog"

	"hermannm.dev/devlog"
)

// DevLogger is an ExternalLogger backed by hermannm.dev/devlog, giving
// placer's binaries readable, colorized console output in addition to the
// plain timestamped lines the default logger writes.
type DevLogger struct {
	logger *slog.Logger
}

var _ ExternalLogger = (*DevLogger)(nil)

// NewDevLogger builds a DevLogger that writes to w.
func NewDevLogger(w io.Writer) *DevLogger {
	handler := devlog.NewHandler(w, &devlog.Options{
		Level: slog.LevelDebug,
	})
	return &DevLogger{logger: slog.New(handler)}
}

// Log implements ExternalLogger.
func (d *DevLogger) Log(level Level, msg string) {
	d.logger.Log(context.Background(), toSlogLevel(level), msg)
}

// Flush implements ExternalLogger. devlog writes synchronously, so there is
// nothing to flush, but the method exists to satisfy the interface and to
// give the coordinator a place to hook future buffering.
func (d *DevLogger) Flush() {}

func toSlogLevel(level Level) slog.Level {
	switch level {
	case DebugLevel:
		return slog.LevelDebug
	case InfoLevel:
		return slog.LevelInfo
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
