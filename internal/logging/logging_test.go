package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if got := ParseFormat("JSON"); got != FormatJSON {
		t.Errorf("ParseFormat(JSON) = %q", got)
	}
	if got := ParseFormat("human"); got != FormatText {
		t.Errorf("ParseFormat(human) = %q", got)
	}
	if got := ParseFormat("whatever"); got != FormatAuto {
		t.Errorf("ParseFormat(whatever) = %q", got)
	}
}

func TestSensitiveRecordsDroppedByDefault(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: FormatJSON, Level: slog.LevelDebug}, &buf)

	l.Debug("clipboard contents", Sensitive(), "preview", "hunter2")
	l.Info("clipboard updated", "display", ":1")

	out := buf.String()
	if strings.Contains(out, "hunter2") {
		t.Fatalf("sensitive record leaked: %s", out)
	}
	if !strings.Contains(out, "clipboard updated") {
		t.Fatalf("expected non-sensitive record, got: %s", out)
	}
}

func TestSensitiveRecordsBoundViaWith(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: FormatJSON, Level: slog.LevelDebug}, &buf)

	l.With(Sensitive()).Debug("clipboard contents", "preview", "hunter2")
	l.WithGroup("hub").Info("still here")

	out := buf.String()
	if strings.Contains(out, "hunter2") {
		t.Fatalf("sensitive record leaked: %s", out)
	}
	if !strings.Contains(out, "still here") {
		t.Fatalf("expected grouped record, got: %s", out)
	}
}

func TestSensitiveRecordsAllowed(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: FormatJSON, Level: slog.LevelDebug, LogContents: true}, &buf)

	l.Debug("clipboard contents", Sensitive(), "preview", "hunter2")

	if !strings.Contains(buf.String(), "hunter2") {
		t.Fatalf("expected sensitive record with LogContents, got: %s", buf.String())
	}
}

func TestHideTimestamp(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: FormatJSON, Level: slog.LevelInfo, HideTimestamp: true}, &buf)
	l.Info("hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v (%s)", err, buf.String())
	}
	if _, ok := rec[slog.TimeKey]; ok {
		t.Fatalf("expected no time field, got: %s", buf.String())
	}

	buf.Reset()
	New(Config{Format: FormatJSON, Level: slog.LevelInfo}, &buf).Info("hello")
	if !strings.Contains(buf.String(), `"time"`) {
		t.Fatalf("expected time field by default, got: %s", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: FormatJSON, Level: slog.LevelWarn}, &buf)

	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info log should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn log should be emitted: %s", out)
	}
}
