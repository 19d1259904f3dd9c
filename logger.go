package propdex

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/propdex/config"
)

// Logger wraps slog.Logger with the field names used by the registry.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger from handler.
// A nil handler logs text at info level to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewWriterLogger creates a Logger writing to w in format (config.FormatJSON,
// config.FormatText or config.FormatNone) at the given minimum level.
func NewWriterLogger(w io.Writer, format string, level slog.Level) *Logger {
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case config.FormatJSON:
		return NewLogger(slog.NewJSONHandler(w, opts))
	case config.FormatText:
		return NewLogger(slog.NewTextHandler(w, opts))
	default:
		return NoopLogger()
	}
}

// NewJSONLogger creates a Logger writing JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewWriterLogger(os.Stderr, config.FormatJSON, level)
}

// NewTextLogger creates a Logger writing human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewWriterLogger(os.Stderr, config.FormatText, level)
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// WithProperty adds a property field to the logger.
func (l *Logger) WithProperty(name string) *Logger {
	return &Logger{Logger: l.Logger.With("property", name)}
}

// WithComposite adds the property names of a composite to the logger.
func (l *Logger) WithComposite(names []string) *Logger {
	return &Logger{Logger: l.Logger.With("properties", names)}
}

// LogRegister logs a property registration.
func (l *Logger) LogRegister(ctx context.Context, name, typ string, err error) {
	log := l.WithProperty(name)
	if err != nil {
		log.ErrorContext(ctx, "register property failed", "type", typ, "error", err)
		return
	}
	log.DebugContext(ctx, "property registered", "type", typ)
}

// LogComposite logs a composite registration.
func (l *Logger) LogComposite(ctx context.Context, names []string, err error) {
	log := l.WithComposite(names)
	if err != nil {
		log.ErrorContext(ctx, "register composite failed", "error", err)
		return
	}
	log.DebugContext(ctx, "composite registered")
}

// LogLoad logs a bulk load.
func (l *Logger) LogLoad(ctx context.Context, records, failed int, duration time.Duration) {
	if failed > 0 {
		l.WarnContext(ctx, "load completed with rejected records",
			"records", records,
			"rejected", failed,
			"loaded", records-failed,
			"duration", duration,
		)
		return
	}
	l.InfoContext(ctx, "load completed",
		"records", records,
		"duration", duration,
	)
}
