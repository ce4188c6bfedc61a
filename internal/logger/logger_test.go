package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Setenv("DEBUG", "")
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitWriterJSON(t *testing.T) {
	t.Setenv("DEBUG", "")
	var buf bytes.Buffer
	InitWriter(&buf, "info", "json")

	Debug("hidden")
	Info("aggregate done", "count", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered at info level: %s", out)
	}
	if !strings.Contains(out, `"msg":"aggregate done"`) || !strings.Contains(out, `"count":3`) {
		t.Fatalf("unexpected json output: %s", out)
	}
}
