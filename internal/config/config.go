package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"cloudpico-sensortag/internal/sensortag"
)

type Config struct {
	AppEnv       string
	LogLevel     slog.Level
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string

	BLEAdapter       string
	SensorTagName    string
	SensorTagAddress string
	ScanTimeout      time.Duration

	SensorPollInterval time.Duration
	Sensors            []sensortag.Kind
	GyroAxis           sensortag.GyroscopeAxis
	// SensorPeriod is written to every period characteristic, in 10 ms units.
	SensorPeriod byte
	StationID    string
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	mqttBroker := strings.TrimSpace(os.Getenv("MQTT_BROKER"))
	if mqttBroker == "" {
		mqttBroker = "localhost"
	}

	mqttPortStr := strings.TrimSpace(os.Getenv("MQTT_PORT"))
	if mqttPortStr == "" {
		mqttPortStr = "1883"
	}
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}

	mqttClientID := strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID"))
	if mqttClientID == "" {
		mqttClientID = "cloudpico-sensortag"
	}

	bleAdapter := strings.TrimSpace(os.Getenv("BLE_ADAPTER"))
	if bleAdapter == "" {
		bleAdapter = "hci0"
	}

	tagName := strings.TrimSpace(os.Getenv("SENSORTAG_NAME"))
	if tagName == "" {
		tagName = "CC2650 SensorTag"
	}
	tagAddress := strings.TrimSpace(os.Getenv("SENSORTAG_ADDRESS"))

	scanTimeoutStr := strings.TrimSpace(os.Getenv("SCAN_TIMEOUT"))
	if scanTimeoutStr == "" {
		scanTimeoutStr = "30s"
	}
	scanTimeout, err := time.ParseDuration(scanTimeoutStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SCAN_TIMEOUT %q: %w", scanTimeoutStr, err)
	}
	if scanTimeout <= 0 {
		return Config{}, fmt.Errorf("SCAN_TIMEOUT must be positive, got %v", scanTimeout)
	}

	sensorPollIntervalStr := strings.TrimSpace(os.Getenv("SENSOR_POLL_INTERVAL"))
	if sensorPollIntervalStr == "" {
		sensorPollIntervalStr = "1s"
	}
	sensorPollInterval, err := time.ParseDuration(sensorPollIntervalStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SENSOR_POLL_INTERVAL %q: %w", sensorPollIntervalStr, err)
	}
	if sensorPollInterval <= 0 {
		return Config{}, fmt.Errorf("SENSOR_POLL_INTERVAL must be positive, got %v", sensorPollInterval)
	}

	sensors, err := parseSensors(os.Getenv("SENSORS"))
	if err != nil {
		return Config{}, err
	}

	gyroAxisStr := strings.TrimSpace(os.Getenv("GYRO_AXIS"))
	if gyroAxisStr == "" {
		gyroAxisStr = "xyz"
	}
	gyroAxis, err := sensortag.ParseGyroscopeAxis(gyroAxisStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid GYRO_AXIS %q: %w", gyroAxisStr, err)
	}

	sensorPeriodStr := strings.TrimSpace(os.Getenv("SENSOR_PERIOD"))
	if sensorPeriodStr == "" {
		sensorPeriodStr = "100"
	}
	sensorPeriod, err := strconv.ParseUint(sensorPeriodStr, 0, 8)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SENSOR_PERIOD %q: %w", sensorPeriodStr, err)
	}
	if byte(sensorPeriod) < sensortag.MinReadPeriod {
		return Config{}, fmt.Errorf("SENSOR_PERIOD must be at least %d (100ms), got %d", sensortag.MinReadPeriod, sensorPeriod)
	}

	stationID := strings.TrimSpace(os.Getenv("STATION_ID"))
	if stationID == "" {
		stationID = "sensortag"
	}

	return Config{
		AppEnv:             appEnv,
		LogLevel:           level,
		MQTTBroker:         mqttBroker,
		MQTTPort:           mqttPort,
		MQTTClientID:       mqttClientID,
		BLEAdapter:         bleAdapter,
		SensorTagName:      tagName,
		SensorTagAddress:   tagAddress,
		ScanTimeout:        scanTimeout,
		SensorPollInterval: sensorPollInterval,
		Sensors:            sensors,
		GyroAxis:           gyroAxis,
		SensorPeriod:       byte(sensorPeriod),
		StationID:          stationID,
	}, nil
}

// DefaultSensors are polled when SENSORS is empty. The key service is left
// out: TI firmware exposes its data characteristic for notifications only.
var DefaultSensors = []sensortag.Kind{
	sensortag.Movement,
	sensortag.Humidity,
	sensortag.Temperature,
	sensortag.Pressure,
	sensortag.Luxometer,
}

// parseSensors reads a comma separated list of sensor names. Empty means
// DefaultSensors.
func parseSensors(s string) ([]sensortag.Kind, error) {
	if strings.TrimSpace(s) == "" {
		return append([]sensortag.Kind(nil), DefaultSensors...), nil
	}
	seen := make(map[sensortag.Kind]bool)
	var kinds []sensortag.Kind
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, err := sensortag.ParseKind(part)
		if err != nil {
			return nil, fmt.Errorf("invalid SENSORS %q: %w", s, err)
		}
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("invalid SENSORS %q: no sensor names", s)
	}
	return kinds, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
