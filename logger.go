package stat7

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with engine-specific helpers so every operation
// logs the same field names.
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithEntity adds an entity ID field to the logger.
func (l *Logger) WithEntity(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("entity_id", id),
	}
}

// WithAddress adds an address field to the logger.
func (l *Logger) WithAddress(address string) *Logger {
	return &Logger{
		Logger: l.Logger.With("address", address),
	}
}

// LogSubmit logs a submit operation.
func (l *Logger) LogSubmit(ctx context.Context, id, address string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "submit failed",
			"entity_id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "submit completed",
			"entity_id", id,
			"address", address,
		)
	}
}

// LogBatchSubmit logs a batch submit operation.
func (l *Logger) LogBatchSubmit(ctx context.Context, count, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "batch submit completed with failures",
			"total", count,
			"failed", failed,
			"success", count-failed,
		)
	} else {
		l.InfoContext(ctx, "batch submit completed",
			"total", count,
		)
	}
}

// LogLookup logs an exact-address lookup.
func (l *Logger) LogLookup(ctx context.Context, address string, found bool) {
	l.DebugContext(ctx, "lookup",
		"address", address,
		"found", found,
	)
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, address string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"address", address,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"address", address,
		)
	}
}

// LogRangeQuery logs a range query.
func (l *Logger) LogRangeQuery(ctx context.Context, dimension string, low, high float64, matched int) {
	l.DebugContext(ctx, "range query completed",
		"dimension", dimension,
		"low", low,
		"high", high,
		"matched", matched,
	)
}

// LogHybridQuery logs a hybrid query.
func (l *Logger) LogHybridQuery(ctx context.Context, k int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "hybrid query failed",
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "hybrid query completed",
			"k", k,
			"duration", duration,
		)
	}
}

// LogCompress logs a compression run.
func (l *Logger) LogCompress(ctx context.Context, id string, stages int, incomplete bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "compress failed",
			"entity_id", id,
			"stages", stages,
			"incomplete", incomplete,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "compress completed",
			"entity_id", id,
			"stages", stages,
		)
	}
}

// LogExpand logs a reconstruction run.
func (l *Logger) LogExpand(ctx context.Context, id string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "expand failed",
			"entity_id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "expand completed",
			"entity_id", id,
		)
	}
}

// LogBootstrap logs bootstrap record creation or restoration.
func (l *Logger) LogBootstrap(ctx context.Context, op, id string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "bootstrap failed",
			"op", op,
			"entity_id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "bootstrap completed",
			"op", op,
			"entity_id", id,
		)
	}
}

// LogEntangle logs an entanglement detection run.
func (l *Logger) LogEntangle(ctx context.Context, entities, pairs int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "entanglement detection failed",
			"entities", entities,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "entanglement detection completed",
			"entities", entities,
			"pairs", pairs,
			"duration", duration,
		)
	}
}
