package types

import "time"

// Telemetry is one decoded SensorTag frame as published to the broker.
type Telemetry struct {
	StationID string             `json:"station_id"`
	Device    string             `json:"device"`
	Sensor    string             `json:"sensor"`
	Timestamp time.Time          `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
	Units     map[string]string  `json:"units,omitempty"`
	Raw       string             `json:"raw,omitempty"`
	Sequence  *int               `json:"sequence,omitempty"`
}

// DeviceStatus is the retained per-device availability message.
type DeviceStatus struct {
	StationID string    `json:"station_id"`
	Device    string    `json:"device"`
	LastSeen  time.Time `json:"last_seen"`
	Connected bool      `json:"connected"`
	Sensors   []string  `json:"sensors,omitempty"`
}
