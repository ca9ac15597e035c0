package telemetry

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInfoAndErrorCarryFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	prev := SetLogger(zap.New(core))
	defer SetLogger(prev)

	Info("clients.seeded", map[string]any{"count": 3})
	Error("inference.failed", map[string]any{"model": "gemma3", "error": errors.New("boom")})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "clients.seeded" || entries[0].ContextMap()["count"] != int64(3) {
		t.Fatalf("unexpected first entry: %+v", entries[0].ContextMap())
	}
	ctx := entries[1].ContextMap()
	if entries[1].Level != zapcore.ErrorLevel {
		t.Fatalf("expected error level, got %s", entries[1].Level)
	}
	if ctx["model"] != "gemma3" || ctx["error"] != "boom" {
		t.Fatalf("unexpected error entry fields: %+v", ctx)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"verbose": zapcore.InfoLevel,
	}
	for raw, want := range tests {
		if got := parseLevel(raw); got != want {
			t.Fatalf("parseLevel(%q) = %s, want %s", raw, got, want)
		}
	}
}
