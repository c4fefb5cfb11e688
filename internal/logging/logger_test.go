package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"cloudpico-sensortag/internal/config"
)

func TestNewLogger_JSONInRelease(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{AppEnv: "prod", LogLevel: slog.LevelInfo, StationID: "lab"}
	logger := newLogger(&buf, cfg, "1.2.0", "sensortag-gateway")

	logger.Debug("hidden")
	logger.Info("ble: connected", "addr", "B0:B4:48:C9:4E:01")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	for k, want := range map[string]string{
		"msg": "ble: connected", "app": "sensortag-gateway", "version": "1.2.0",
		"env": "prod", "station_id": "lab", "addr": "B0:B4:48:C9:4E:01",
	} {
		if rec[k] != want {
			t.Errorf("%s = %v, want %q", k, rec[k], want)
		}
	}
}

func TestNewLogger_TintInDev(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.Config{LogLevel: slog.LevelDebug}, "dev", "sensortag-gateway")

	logger.Debug("collector: frame", "sensor", "humidity")

	out := buf.String()
	if !strings.Contains(out, "collector: frame") || !strings.Contains(out, "humidity") {
		t.Errorf("output = %q, want message and sensor attribute", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("dev output looks like JSON: %q", out)
	}
}
