// Package collector polls enabled SensorTag sensors and publishes each
// decoded frame as telemetry.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"cloudpico-sensortag/internal/sensortag"
	"cloudpico-sensortag/internal/utils"
	"cloudpico-sensortag/shared/types"
)

// Publisher receives every decoded reading.
type Publisher interface {
	PublishTelemetry(telemetry types.Telemetry) error
}

type Options struct {
	StationID string
	Device    string
	Interval  time.Duration
	GyroAxis  sensortag.GyroscopeAxis
	// Period in 10 ms units written to sensors that support it; 0 leaves
	// the firmware default.
	Period byte
}

type Collector struct {
	opts    Options
	sensors []sensortag.Sensor
	pub     Publisher
	now     func() time.Time
}

func New(opts Options, sensors []sensortag.Sensor, pub Publisher) *Collector {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.GyroAxis == 0 {
		opts.GyroAxis = sensortag.AxisXYZ
	}
	return &Collector{
		opts:    opts,
		sensors: sensors,
		pub:     pub,
		now:     time.Now,
	}
}

type periodSetter interface {
	SetReadPeriod(ctx context.Context, period byte) error
}

type axisReporter interface {
	Axis() sensortag.GyroscopeAxis
}

// disableTimeout bounds switching sensors off once ctx may already be done.
const disableTimeout = 5 * time.Second

// Enable switches every sensor on and applies the configured period. If a
// sensor fails, the ones already enabled are switched off again unless the
// tag is unreachable.
func (c *Collector) Enable(ctx context.Context) error {
	for _, s := range c.sensors {
		var err error
		if m, ok := s.(*sensortag.MovementSensor); ok {
			err = m.EnableAxes(ctx, c.opts.GyroAxis)
			if err == nil && c.opts.Period != 0 {
				err = m.SetAccelerometerReadPeriod(ctx, c.opts.Period)
			}
		} else {
			err = s.Enable(ctx)
			if p, ok := s.(periodSetter); ok && err == nil && c.opts.Period != 0 {
				err = p.SetReadPeriod(ctx, c.opts.Period)
			}
		}
		if err != nil {
			if !errors.Is(err, sensortag.ErrDeviceUnreachable) {
				c.rollback(ctx)
			}
			return fmt.Errorf("enable %s: %w", s.Name(), err)
		}
		slog.Info("collector: sensor enabled", "sensor", s.Name(), "period_10ms", c.opts.Period)
	}
	return nil
}

func (c *Collector) rollback(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disableTimeout)
	defer cancel()
	if err := c.Disable(ctx); err != nil {
		slog.Warn("collector: rollback after failed enable", "error", err)
	}
}

// Disable switches every enabled sensor off. All sensors are attempted.
func (c *Collector) Disable(ctx context.Context) error {
	var errs []error
	for _, s := range c.sensors {
		if !s.Enabled() {
			continue
		}
		if err := s.Disable(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disable %s: %w", s.Name(), err))
			continue
		}
		slog.Info("collector: sensor disabled", "sensor", s.Name())
	}
	return errors.Join(errs...)
}

// Run polls each sensor in its own goroutine until ctx is done or a sensor
// becomes unreachable. Per-frame decode or publish failures are logged and
// skipped.
func (c *Collector) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range c.sensors {
		g.Go(func() error {
			return c.loop(ctx, s)
		})
	}
	return g.Wait()
}

func (c *Collector) loop(ctx context.Context, s sensortag.Sensor) error {
	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	sequence := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			sequence++
			if err := c.Poll(ctx, s, sequence); err != nil {
				if errors.Is(err, sensortag.ErrDeviceUnreachable) || errors.Is(err, sensortag.ErrDeviceNotInitialized) {
					return err
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Warn("collector: poll failed", "sensor", s.Name(), "sequence", sequence, "error", err)
			}
		}
	}
}

// Poll reads, decodes and publishes a single frame of s.
func (c *Collector) Poll(ctx context.Context, s sensortag.Sensor, sequence int) error {
	raw, err := s.ReadRaw(ctx)
	if err != nil {
		return err
	}

	axis := c.opts.GyroAxis
	if a, ok := s.(axisReporter); ok && a.Axis() != 0 {
		axis = a.Axis()
	}
	reading, err := sensortag.Decode(s.Kind(), raw, axis)
	if err != nil {
		return fmt.Errorf("decode %s frame %s: %w", s.Name(), utils.BytesToHex(raw), err)
	}

	seq := sequence
	telemetry := types.Telemetry{
		StationID: c.opts.StationID,
		Device:    c.opts.Device,
		Sensor:    s.Name(),
		Timestamp: c.now(),
		Values:    make(map[string]float64, len(reading.Fields)),
		Units:     make(map[string]string, len(reading.Fields)),
		Raw:       utils.BytesToHex(raw),
		Sequence:  &seq,
	}
	for _, f := range reading.Fields {
		telemetry.Values[f.Name] = f.Value
		if f.Unit != "" {
			telemetry.Units[f.Name] = f.Unit
		}
	}

	if err := c.pub.PublishTelemetry(telemetry); err != nil {
		return fmt.Errorf("publish %s: %w", s.Name(), err)
	}
	slog.Debug("collector: reading published",
		"sensor", s.Name(),
		"sequence", sequence,
		"values", telemetry.Values,
		"data", telemetry.Raw,
	)
	return nil
}
