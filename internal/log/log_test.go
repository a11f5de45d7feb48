package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	t.Setenv("GO_ENV", "")
	var buf bytes.Buffer
	l := New(&buf, "warn")
	l.Info("hidden")
	l.Warn("shown", "component", "test")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "component=test") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestNewProductionIsJSON(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	var buf bytes.Buffer
	New(&buf, "info").Info("hello")
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}
