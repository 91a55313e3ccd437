package gridpls

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/gridpls/attr"
)

// Logger wraps slog.Logger with gridpls-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithField adds a field index to the logger.
func (l *Logger) WithField(f int) *Logger {
	return &Logger{
		Logger: l.Logger.With("field", f),
	}
}

// WithSession adds a session label to the logger.
func (l *Logger) WithSession(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("session", name),
	}
}

// LogFieldsAdded logs a field allocation.
func (l *Logger) LogFieldsAdded(ctx context.Context, first, n int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "field allocation failed",
			"first", first,
			"count", n,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "fields allocated",
			"first", first,
			"count", n,
		)
	}
}

// LogRecompute logs a recompute pass.
func (l *Logger) LogRecompute(ctx context.Context, counts attr.Counts, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "recompute failed",
			"duration", d,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "recompute completed",
			"active_fields", counts.ActiveFields,
			"active_objects", counts.ActiveObjects,
			"test_objects", counts.TestObjects,
			"duration", d,
		)
	}
}

// LogPartition logs a cross-validation plan build.
func (l *Logger) LogPartition(ctx context.Context, scheme string, folds int, err error) {
	if err != nil {
		l.WarnContext(ctx, "partition failed",
			"scheme", scheme,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "partition built",
			"scheme", scheme,
			"folds", folds,
		)
	}
}

// LogFieldSwitch logs a change of the mapped field in paged storage.
func (l *Logger) LogFieldSwitch(from, to int, d time.Duration) {
	l.Debug("mapped field switched",
		"from", from,
		"to", to,
		"duration", d,
	)
}

// LogArchive logs an archive save or load.
func (l *Logger) LogArchive(ctx context.Context, op string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "archive "+op+" failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "archive "+op+" completed",
			"stored_bytes", bytes,
		)
	}
}
