package charmlog

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Options{Writer: &buf, Level: "warn"})

	l.Info("hidden")
	l.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Errorf("expected warn line with key-value pair, got %q", out)
	}
}

func TestNewLogger_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Options{Writer: &buf, Level: "loud"})

	l.Debug("debug line")
	l.Info("info line")

	out := buf.String()
	if strings.Contains(out, "debug line") {
		t.Errorf("debug should be filtered at info level: %q", out)
	}
	if !strings.Contains(out, "info line") {
		t.Errorf("expected info line, got %q", out)
	}
}
