package logging

import (
	"bytes"
	"context"
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
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestUseJSONExplicit(t *testing.T) {
	if !UseJSON("json") {
		t.Error("json format should select JSON")
	}
	if UseJSON("text") {
		t.Error("text format should not select JSON")
	}
}

func TestComponentAndContext(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, slog.LevelInfo, true)

	ctx := ContextWithRunID(context.Background(), "run-1")
	ctx = ContextWithEntityID(ctx, "0000320193")

	FromContext(ctx, "flatten").Info("document flattened", "rows", 3)

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v (%s)", err, buf.String())
	}

	if entry["component"] != "flatten" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["run_id"] != "run-1" {
		t.Errorf("run_id = %v", entry["run_id"])
	}
	if entry["entity_id"] != "0000320193" {
		t.Errorf("entity_id = %v", entry["entity_id"])
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, slog.LevelWarn, false)

	Info("hidden")
	Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn message should be logged")
	}
}
