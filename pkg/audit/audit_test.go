package audit

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRecordWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf)

	l.Record(EventAlertCreated, map[string]any{"alert_id": "ALT-ABCD1234", "severity": "HIGH"})
	l.Record(EventAlertResolved, map[string]any{"alert_id": "ALT-ABCD1234"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var ev Event
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("line is not valid JSON: %v", err)
	}
	if ev.Type != EventAlertCreated {
		t.Errorf("type = %q, want %q", ev.Type, EventAlertCreated)
	}
	if ev.Fields["alert_id"] != "ALT-ABCD1234" {
		t.Errorf("missing alert_id field: %v", ev.Fields)
	}
	if ev.Time.IsZero() {
		t.Error("event time should be set")
	}
}

func TestNilLoggerIsNoop(t *testing.T) {
	var l *Logger
	l.Record(EventDispatchFailed, nil)
	if err := l.Close(); err != nil {
		t.Errorf("nil close should be nil, got %v", err)
	}
}

func TestOpenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	for i := 0; i < 2; i++ {
		l, err := Open(path)
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		l.Record(EventAlertsCleared, map[string]any{"count": i})
		if err := l.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "\n"); got != 2 {
		t.Errorf("expected 2 events across reopens, got %d lines", got)
	}
}
