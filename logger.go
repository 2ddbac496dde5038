package docidx

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with consistent field names for index
// operations.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogAdd logs a batch insert of embedded texts.
func (l *Logger) LogAdd(ctx context.Context, indexer string, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add failed",
			"indexer", indexer,
			"count", count,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "add completed",
			"indexer", indexer,
			"count", count,
		)
	}
}

// LogRemove logs a batch removal.
func (l *Logger) LogRemove(ctx context.Context, indexer string, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "remove failed",
			"indexer", indexer,
			"count", count,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "remove completed",
			"indexer", indexer,
			"count", count,
		)
	}
}

// LogSearch logs a text search.
func (l *Logger) LogSearch(ctx context.Context, indexer string, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"indexer", indexer,
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"indexer", indexer,
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogSave logs the persistence of an indexer.
func (l *Logger) LogSave(ctx context.Context, indexer, blobKey string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"indexer", indexer,
			"blob_key", blobKey,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "save completed",
			"indexer", indexer,
			"blob_key", blobKey,
		)
	}
}

// LogLoad logs a load, including which tier served it.
func (l *Logger) LogLoad(ctx context.Context, indexer, source string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"indexer", indexer,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "load completed",
			"indexer", indexer,
			"source", source,
		)
	}
}
