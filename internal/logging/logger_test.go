package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestComponentLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, LevelWarn)
	defer Configure(nil, LevelInfo)

	logger := NewComponentLogger("test")
	logger.Debug("hidden %d", 1)
	logger.Info("hidden too")
	logger.Warn("visible %s", "warn")
	logger.Error("visible error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("low-severity lines leaked: %q", out)
	}
	if !strings.Contains(out, "visible warn") || !strings.Contains(out, "visible error") {
		t.Fatalf("expected warn and error lines, got: %q", out)
	}
	if !strings.Contains(out, "[test]") {
		t.Fatalf("expected component tag in output: %q", out)
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	logger := NewComponentLogger("x")
	if OrNop(logger) != logger {
		t.Fatal("OrNop should pass through non-nil loggers")
	}
}
