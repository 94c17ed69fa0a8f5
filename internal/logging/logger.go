package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LogFileName is the name of the log file created inside the log directory.
const LogFileName = "camlock.log"

// Log levels supported by the logger
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Logger provides structured logging with context propagation.
// It is safe for concurrent use.
type Logger struct {
	logger *slog.Logger
	out    *output
	attrs  []slog.Attr // Persistent attributes (device, component)
}

// output is the sink shared by a logger and all of its children.
type output struct {
	mu     sync.Mutex
	closer io.Closer
	syncer interface{ Sync() error }
}

// NewLogger creates a Logger that writes JSON-formatted logs to
// {logDir}/camlock.log. If logDir is empty, logs are written to stderr.
//
// The level parameter controls which messages are logged:
//   - DEBUG: All messages
//   - INFO: Info, Warn, and Error messages
//   - WARN: Warn and Error messages
//   - ERROR: Only Error messages
func NewLogger(logDir string, level string) (*Logger, error) {
	if logDir == "" {
		return newLogger(os.Stderr, &output{}, level), nil
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(filepath.Join(logDir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return newLogger(file, &output{closer: file, syncer: file}, level), nil
}

// NewLoggerWithRotation is like NewLogger but rotates {logDir}/camlock.log
// according to config. If logDir is empty, logs go to stderr unrotated.
func NewLoggerWithRotation(logDir string, level string, config RotationConfig) (*Logger, error) {
	if logDir == "" {
		return newLogger(os.Stderr, &output{}, level), nil
	}

	rw, err := NewRotatingWriter(filepath.Join(logDir, LogFileName), config)
	if err != nil {
		return nil, err
	}

	return newLogger(rw, &output{closer: rw, syncer: rw}, level), nil
}

// NewWriterLogger creates a Logger writing to an arbitrary writer. The writer
// is not closed by Close.
func NewWriterLogger(w io.Writer, level string) *Logger {
	return newLogger(w, &output{}, level)
}

func newLogger(w io.Writer, out *output, level string) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})

	return &Logger{
		logger: slog.New(handler),
		out:    out,
		attrs:  make([]slog.Attr, 0),
	}
}

// parseLevel converts a string log level to slog.Level.
// Defaults to INFO if the level string is not recognized.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithDevice returns a child Logger that tags every entry with the device
// identity.
func (l *Logger) WithDevice(name string) *Logger {
	return l.withAttrs(slog.String("device", name))
}

// WithComponent returns a child Logger that tags every entry with the
// emitting component, e.g. "heartbeat" or "cli".
func (l *Logger) WithComponent(component string) *Logger {
	return l.withAttrs(slog.String("component", component))
}

// With returns a child Logger with arbitrary key-value attributes.
// Keys and values are provided as alternating arguments; pairs whose key
// is not a string are dropped.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}

	attrs := make([]slog.Attr, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, slog.Any(key, args[i+1]))
	}
	return l.withAttrs(attrs...)
}

func (l *Logger) withAttrs(extra ...slog.Attr) *Logger {
	attrs := make([]slog.Attr, 0, len(l.attrs)+len(extra))
	attrs = append(attrs, l.attrs...)
	attrs = append(attrs, extra...)

	return &Logger{
		logger: l.logger,
		out:    l.out,
		attrs:  attrs,
	}
}

// Debug logs a message at DEBUG level with optional key-value pairs.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

// Info logs a message at INFO level with optional key-value pairs.
func (l *Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

// Warn logs a message at WARN level with optional key-value pairs.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

// Error logs a message at ERROR level with optional key-value pairs.
func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	if !l.logger.Enabled(context.Background(), level) {
		return
	}

	all := make([]any, 0, len(l.attrs)+len(args))
	for _, attr := range l.attrs {
		all = append(all, attr)
	}
	all = append(all, args...)

	l.logger.Log(context.Background(), level, msg, all...)
}

// Close flushes and closes the log file. Loggers writing to stderr or to a
// caller-provided writer treat Close as a no-op. Closing any child closes
// the shared sink.
func (l *Logger) Close() error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	if l.out.closer == nil {
		return nil
	}
	if l.out.syncer != nil {
		if err := l.out.syncer.Sync(); err != nil {
			return fmt.Errorf("failed to sync log file: %w", err)
		}
	}
	if err := l.out.closer.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	l.out.closer = nil
	l.out.syncer = nil
	return nil
}

// NopLogger returns a Logger that discards all log output.
// Useful for testing or when logging is disabled.
func NopLogger() *Logger {
	return newLogger(io.Discard, &output{}, LevelError)
}

// ParseLevel normalizes a user-provided level string to one of the level
// constants. Returns LevelInfo if the level string is not recognized.
func ParseLevel(level string) string {
	switch strings.ToUpper(level) {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return strings.ToUpper(level)
	default:
		return LevelInfo
	}
}

// ValidLevels returns the list of valid log level strings.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}
