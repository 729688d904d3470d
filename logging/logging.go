// Package logging provides the common structured-logging interface used
// across the module, backed by log/slog. Grounded on the teacher's
// internal/logging/logger.go (component-tagged loggers, a no-op default).
// file: logging/logging.go
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Logger is the logging surface every package depends on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a logger that always includes the given key/value pairs.
	With(args ...any) Logger
}

type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{l: s.l.With(args...)}
}

var (
	mu      sync.RWMutex
	handler slog.Handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	level   = new(slog.LevelVar)
)

func init() {
	level.Set(slog.LevelInfo)
	handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
}

// Init sets the minimum level for every logger and the destination for
// loggers obtained through Get afterwards; loggers obtained earlier keep
// writing to the previous destination.
func Init(w io.Writer, lvl slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	level.Set(lvl)
	handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// SetLevel adjusts the minimum level without touching the destination;
// used by rpcconfig's hot-reload of log verbosity.
func SetLevel(lvl slog.Level) {
	level.Set(lvl)
}

// Get returns a logger tagged with a "component" field, the convention used
// throughout the teacher's internal/jsonrpc package.
func Get(component string) Logger {
	mu.RLock()
	h := handler
	mu.RUnlock()
	return &slogLogger{l: slog.New(h).With("component", component)}
}

// Noop returns a logger that discards everything, for tests and library
// consumers who haven't configured logging.
func Noop() Logger {
	return &slogLogger{l: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
