// Package audit appends structured operational events to a JSONL file, one
// object per line. The log is an operator artifact for reconstructing what
// the pipeline did and when, separate from process logging.
package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// Event types recorded by the pipeline.
const (
	EventAlertCreated   = "alert_created"
	EventAlertResolved  = "alert_resolved"
	EventDispatchFailed = "dispatch_failed"
	EventAlertsCleared  = "alerts_cleared"
	EventModelTrained   = "model_trained"
)

// Event is one audit record.
type Event struct {
	Time   time.Time      `json:"time"`
	Type   string         `json:"type"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Logger serializes events to a single writer. A nil *Logger is a valid
// no-op logger, so call sites never branch on whether auditing is enabled.
type Logger struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	now    func() time.Time
}

// Open creates a logger appending to the file at path.
func Open(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return &Logger{w: f, closer: f, now: time.Now}, nil
}

// NewWriter wraps an arbitrary writer, used by tests.
func NewWriter(w io.Writer) *Logger {
	return &Logger{w: w, now: time.Now}
}

// Record appends one event. Write failures are logged and swallowed: the
// audit trail must never take the pipeline down.
func (l *Logger) Record(eventType string, fields map[string]any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	line, err := json.Marshal(Event{Time: l.now().UTC(), Type: eventType, Fields: fields})
	if err != nil {
		log.Printf("[WARN] audit event marshal failed: %v", err)
		return
	}
	if _, err := l.w.Write(append(line, '\n')); err != nil {
		log.Printf("[WARN] audit write failed: %v", err)
	}
}

// Close releases the underlying file, if any.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
