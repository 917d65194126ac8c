package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		enable slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"warn level", "warn", slog.LevelWarn},
		{"warning alias", "WARNING", slog.LevelWarn},
		{"default info", "", slog.LevelInfo},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level)
			if !logger.Enabled(ctx, tt.enable) {
				t.Fatalf("expected level %s to be enabled", tt.enable)
			}
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	logger := Default()

	ctx := context.Background()
	if !logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("Default() should enable info level")
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("Default() should not enable debug level")
	}

	if logger == Default() {
		t.Error("Default() returned the same instance twice")
	}
}

func TestJSONOutputCarriesAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info", WithOutput(&buf)).With("component", "assistant")
	logger.Info("message processed", "phone", "+972500000001")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json log line, got %q: %v", buf.String(), err)
	}
	if entry["component"] != "assistant" {
		t.Fatalf("expected component attribute, got %v", entry["component"])
	}
	if entry["phone"] != "+972500000001" {
		t.Fatalf("expected phone attribute, got %v", entry["phone"])
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New("debug", WithFormat("text"), WithOutput(&buf))
	logger.Debug("hello", "key", "value")

	if !strings.Contains(buf.String(), "key=value") {
		t.Fatalf("expected text handler output, got %q", buf.String())
	}
}
