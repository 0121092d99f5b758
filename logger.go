package lshdb

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with lshdb-specific context.
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

// WithPath adds the database path to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// WithTable adds a table number to the logger.
func (l *Logger) WithTable(table int) *Logger {
	return &Logger{
		Logger: l.Logger.With("table", table),
	}
}

// LogProgress logs ingestion progress.
func (l *Logger) LogProgress(ctx context.Context, processed int64) {
	l.InfoContext(ctx, "ingestion progress",
		"processed", processed,
	)
}

// LogIngest logs a SubmitInputVectors call.
func (l *Logger) LogIngest(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "ingest failed",
			"count", count,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "ingest completed",
			"count", count,
		)
	}
}

// LogCreate logs an index build.
func (l *Logger) LogCreate(ctx context.Context, buildID string, tables, vectors int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "create failed",
			"tables", tables,
			"vectors", vectors,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "database created",
			"build_id", buildID,
			"tables", tables,
			"vectors", vectors,
		)
	}
}

// LogRecover logs a recovery from disk.
func (l *Logger) LogRecover(ctx context.Context, buildID string, tables, vectors int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "recovery failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "database recovered",
			"build_id", buildID,
			"tables", tables,
			"vectors", vectors,
		)
	}
}

// LogQuery logs a near neighbor query.
func (l *Logger) LogQuery(ctx context.Context, beamRadius int, minSimilarity float64, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"beam_radius", beamRadius,
			"min_similarity", minSimilarity,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query completed",
			"beam_radius", beamRadius,
			"min_similarity", minSimilarity,
			"results", results,
		)
	}
}
