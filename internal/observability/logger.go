// Package observability defines shared logging primitives.
package observability

import (
	"io"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// Logger captures structured logging behaviours shared across layers.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field represents a key/value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// F builds a logging field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger = noopLogger{}
)

// SetLogger overrides the global logger used by the client core.
func SetLogger(logger Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if logger == nil {
		defaultLogger = noopLogger{}
		return
	}
	defaultLogger = logger
}

// Log returns the current global logger instance.
func Log() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...Field) {}
func (noopLogger) Info(string, ...Field)  {}
func (noopLogger) Warn(string, ...Field)  {}
func (noopLogger) Error(string, ...Field) {}

// NewJSONLogger returns a logger that writes one JSON document per entry.
func NewJSONLogger(w io.Writer) Logger {
	return &jsonLogger{w: w, clock: time.Now}
}

type jsonLogger struct {
	mu    sync.Mutex
	w     io.Writer
	clock func() time.Time
}

func (l *jsonLogger) Debug(msg string, fields ...Field) { l.emit("debug", msg, fields) }
func (l *jsonLogger) Info(msg string, fields ...Field)  { l.emit("info", msg, fields) }
func (l *jsonLogger) Warn(msg string, fields ...Field)  { l.emit("warn", msg, fields) }
func (l *jsonLogger) Error(msg string, fields ...Field) { l.emit("error", msg, fields) }

func (l *jsonLogger) emit(level, msg string, fields []Field) {
	entry := make(map[string]any, len(fields)+3)
	entry["ts"] = l.clock().UTC().Format(time.RFC3339Nano)
	entry["level"] = level
	entry["msg"] = msg
	for _, f := range fields {
		if f.Key == "" {
			continue
		}
		entry[f.Key] = f.Value
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')
	l.mu.Lock()
	_, _ = l.w.Write(data)
	l.mu.Unlock()
}
