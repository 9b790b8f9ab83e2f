package log

import (
	stderrors "errors"
	"io"
	"log/slog"

	"github.com/felixgeelhaar/hirelink/internal/errors"
)

// Logger provides structured logging with slog
type Logger struct {
	slog   *slog.Logger
	config Config
}

// New creates a new Logger with the given configuration
func New(config Config) *Logger {
	opts := &slog.HandlerOptions{
		Level:     config.Level.ToSlogLevel(),
		AddSource: config.AddSource,
	}

	out := config.Output
	if out == nil {
		out = DefaultConfig().Output
	}

	var handler slog.Handler
	switch config.Format {
	case FormatText:
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	l := slog.New(handler)
	if config.ServiceVersion != "" {
		l = l.With("service", "hirelink", "version", config.ServiceVersion)
	}

	return &Logger{
		slog:   l,
		config: config,
	}
}

// Default creates a logger with default configuration
func Default() *Logger {
	return New(DefaultConfig())
}

// Discard returns a logger that drops every record. Used by tests and
// library callers that pass a nil logger.
func Discard() *Logger {
	return &Logger{slog: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *Logger) *Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// With returns a new Logger with the given attributes added to all log entries
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
	}
}

// WithError adds error details to the logger.
// Coded errors contribute error_code and suggestions.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.With(errorArgs(err)...)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// LogError logs err with full details under msg
func (l *Logger) LogError(msg string, err error) {
	if err == nil {
		return
	}
	l.slog.Error(msg, errorArgs(err)...)
}

func errorArgs(err error) []any {
	var he *errors.HirelinkError
	if !stderrors.As(err, &he) {
		return []any{"error", err.Error()}
	}

	args := []any{
		"error", he.Message,
		"error_code", string(he.Code),
	}
	if len(he.Suggestions) > 0 {
		args = append(args, "suggestions", he.Suggestions)
	}
	if he.Cause != nil {
		args = append(args, "cause", he.Cause.Error())
	}
	return args
}
