package mqtt

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"cloudpico-sensortag/internal/config"
	"cloudpico-sensortag/shared/types"
)

func TestTopics(t *testing.T) {
	if got := TelemetryTopic("lab", "humidity"); got != "sensortag/lab/humidity" {
		t.Errorf("TelemetryTopic() = %q, want sensortag/lab/humidity", got)
	}
	if got := StatusTopic("lab"); got != "sensortag/lab/status" {
		t.Errorf("StatusTopic() = %q, want sensortag/lab/status", got)
	}
}

func TestPublish_NotConnected(t *testing.T) {
	cfg := config.Config{MQTTBroker: "localhost", MQTTPort: 1883, MQTTClientID: "test", StationID: "lab"}
	c, err := NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewClient() error = %v, want nil", err)
	}
	if c.IsConnected() {
		t.Fatalf("IsConnected() = true before Connect")
	}

	err = c.PublishTelemetry(types.Telemetry{Sensor: "luxometer", Values: map[string]float64{"lux": 1}})
	if err == nil || !strings.Contains(err.Error(), "not connected") {
		t.Errorf("PublishTelemetry() error = %v, want not connected", err)
	}
	if err := c.PublishStatus(types.DeviceStatus{Device: "B0:B4"}); err == nil {
		t.Errorf("PublishStatus() error = nil, want not connected")
	}

	c.Disconnect()
	c.Disconnect()
	if err := c.Connect(t.Context()); err == nil || !strings.Contains(err.Error(), "stopped") {
		t.Errorf("Connect() after Disconnect error = %v, want client stopped", err)
	}
}
