// Package trace appends pipeline and LLM execution events to a JSONL file.
// An empty path disables tracing entirely.
package trace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Logger is an append-only JSONL trace writer. The zero-value (or a Logger
// built from an empty path) discards events.
type Logger struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// New creates a trace logger writing to path. Pass an empty path to disable.
func New(path string, logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{path: path, logger: logger}
}

// Enabled reports whether events will be written anywhere.
func (l *Logger) Enabled() bool {
	return l != nil && l.path != ""
}

// Log appends one event. Write failures are logged and swallowed: tracing
// must never abort a run.
func (l *Logger) Log(event string, payload map[string]any) {
	if !l.Enabled() {
		return
	}

	record := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		record[k] = v
	}
	record["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	record["event"] = event

	line, err := json.Marshal(record)
	if err != nil {
		l.logger.Warn("trace marshal failed", zap.String("event", event), zap.Error(err))
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		l.logger.Warn("trace dir create failed", zap.String("path", l.path), zap.Error(err))
		return
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l.logger.Warn("trace open failed", zap.String("path", l.path), zap.Error(err))
		return
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		l.logger.Warn("trace write failed", zap.String("path", l.path), zap.Error(err))
	}
}
