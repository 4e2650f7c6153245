package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"mareo-monitor/internal/config"
)

func TestNewProdWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.Config{AppEnv: "prod", LogLevel: slog.LevelInfo}, "1.2.3", "mareo-monitor")

	logger.Debug("hidden")
	logger.Info("coordinator refreshed", "fmisid", "134253")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("Expected JSON output: %v", err)
	}
	for key, want := range map[string]string{
		"msg":     "coordinator refreshed",
		"app":     "mareo-monitor",
		"version": "1.2.3",
		"env":     "prod",
		"fmisid":  "134253",
	} {
		if record[key] != want {
			t.Errorf("%s: expected %q, got %v", key, want, record[key])
		}
	}
}

func TestNewDevWritesText(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.Config{AppEnv: "dev", LogLevel: slog.LevelDebug}, "dev", "mareo-monitor")

	logger.Debug("parsed forecast", "kept", 3)

	out := buf.String()
	if !strings.Contains(out, "parsed forecast") || !strings.Contains(out, "kept") {
		t.Errorf("Unexpected dev output %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Error("Dev logger should not emit JSON")
	}
}
