package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloudpico-sensortag/internal/ble"
	"cloudpico-sensortag/internal/collector"
	"cloudpico-sensortag/internal/config"
	"cloudpico-sensortag/internal/mqtt"
	"cloudpico-sensortag/internal/sensortag"
	"cloudpico-sensortag/shared/types"
)

const reconnectDelay = 5 * time.Second

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("initializing gateway",
		"mqtt_broker", cfg.MQTTBroker,
		"mqtt_port", cfg.MQTTPort,
		"mqtt_client_id", cfg.MQTTClientID,
		"sensors", len(cfg.Sensors),
	)

	mqttClient, err := mqtt.NewClient(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer mqttClient.Disconnect()

	go func() {
		if err := mqttClient.Connect(ctx); err != nil {
			slog.Error("mqtt connect failed", "error", err)
		}
	}()

	scanner := ble.NewScanner(ble.Options{
		Adapter: cfg.BLEAdapter,
		Filter: ble.Filter{
			LocalName: cfg.SensorTagName,
			Address:   cfg.SensorTagAddress,
		},
		ScanTimeout: cfg.ScanTimeout,
	})

	for ctx.Err() == nil {
		err := session(ctx, cfg, scanner, mqttClient)
		if ctx.Err() != nil {
			break
		}
		switch {
		case errors.Is(err, sensortag.ErrDeviceUnreachable):
			slog.Warn("sensortag unreachable; reconnecting", "error", err, "delay", reconnectDelay)
		case errors.Is(err, sensortag.ErrDeviceNotFound):
			slog.Warn("sensortag not found; rescanning", "error", err, "delay", reconnectDelay)
		case err != nil:
			slog.Error("sensortag session failed", "error", err, "delay", reconnectDelay)
		}

		select {
		case <-ctx.Done():
		case <-time.After(reconnectDelay):
		}
	}

	slog.Info("gateway shutting down")
	return nil
}

// session runs one connect, enable, poll cycle against a single tag.
func session(ctx context.Context, cfg config.Config, scanner *ble.Scanner, pub *mqtt.Client) error {
	match, err := scanner.Find(ctx)
	if err != nil {
		return err
	}
	dev, err := scanner.Connect(ctx, match)
	if err != nil {
		return fmt.Errorf("connect %s: %w", match.Address, err)
	}
	defer func() {
		if err := dev.Disconnect(); err != nil {
			slog.Warn("ble disconnect failed", "device", dev.Address(), "error", err)
		}
	}()

	sensors, err := bindSensors(ctx, dev, cfg.Sensors)
	if err != nil {
		return err
	}

	c := collector.New(collector.Options{
		StationID: cfg.StationID,
		Device:    dev.Address(),
		Interval:  cfg.SensorPollInterval,
		GyroAxis:  cfg.GyroAxis,
		Period:    cfg.SensorPeriod,
	}, sensors, pub)

	if err := c.Enable(ctx); err != nil {
		return err
	}
	publishStatus(pub, dev.Address(), sensors, true)

	runErr := c.Run(ctx)

	// Sensors are switched off on a fresh context so shutdown still reaches the tag.
	if !errors.Is(runErr, sensortag.ErrDeviceUnreachable) {
		disableCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if err := c.Disable(disableCtx); err != nil {
			slog.Warn("disable sensors failed", "error", err)
		}
		cancel()
	}
	publishStatus(pub, dev.Address(), sensors, false)

	if ctx.Err() != nil {
		return nil
	}
	return runErr
}

func bindSensors(ctx context.Context, dev *ble.Device, kinds []sensortag.Kind) ([]sensortag.Sensor, error) {
	sensors := make([]sensortag.Sensor, 0, len(kinds))
	for _, kind := range kinds {
		svc, err := dev.Bind(ctx, sensortag.IdentifiersFor(kind).Service)
		if err != nil {
			return nil, fmt.Errorf("bind %s: %w", kind, err)
		}
		s, err := sensortag.New(kind, svc)
		if err != nil {
			return nil, err
		}
		sensors = append(sensors, s)
	}
	return sensors, nil
}

func publishStatus(pub *mqtt.Client, device string, sensors []sensortag.Sensor, connected bool) {
	names := make([]string, 0, len(sensors))
	for _, s := range sensors {
		names = append(names, s.Name())
	}
	err := pub.PublishStatus(types.DeviceStatus{
		Device:    device,
		Connected: connected,
		Sensors:   names,
	})
	if err != nil {
		slog.Warn("publish device status failed", "device", device, "error", err)
	}
}
