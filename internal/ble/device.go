package ble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"tinygo.org/x/bluetooth"

	"cloudpico-sensortag/internal/sensortag"
)

// maxValueLen is the largest ATT attribute value.
const maxValueLen = 512

var errCharacteristicNotFound = errors.New("characteristic not found")

// Device is a connected tag.
type Device struct {
	addr string
	dev  bluetooth.Device

	mu       sync.Mutex
	services map[bluetooth.UUID]*Service
}

func newDevice(addr string, dev bluetooth.Device) *Device {
	return &Device{
		addr:     addr,
		dev:      dev,
		services: make(map[bluetooth.UUID]*Service),
	}
}

func (d *Device) Address() string { return d.addr }

// Bind discovers the service and all of its characteristics.
func (d *Device) Bind(ctx context.Context, service bluetooth.UUID) (*Service, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.services[service]; ok {
		return s, nil
	}

	var svcs []bluetooth.DeviceService
	err := await(ctx, func() (err error) {
		svcs, err = d.dev.DiscoverServices([]bluetooth.UUID{service})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("discover service %s on %s: %w", service, d.addr, err)
	}
	if len(svcs) == 0 {
		return nil, fmt.Errorf("service %s on %s: %w", service, d.addr, sensortag.ErrDeviceNotFound)
	}

	var chars []bluetooth.DeviceCharacteristic
	err = await(ctx, func() (err error) {
		chars, err = svcs[0].DiscoverCharacteristics(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("discover characteristics of %s on %s: %w", service, d.addr, err)
	}

	s := &Service{
		uuid:  service,
		chars: make(map[bluetooth.UUID]characteristic, len(chars)),
	}
	for _, c := range chars {
		s.chars[c.UUID()] = c
	}
	d.services[service] = s
	slog.Debug("ble: service bound", "addr", d.addr, "service", service.String(), "characteristics", len(chars))
	return s, nil
}

// Disconnect drops the connection. Services bound on d become unreachable.
func (d *Device) Disconnect() error {
	if err := d.dev.Disconnect(); err != nil {
		return fmt.Errorf("ble disconnect %s: %w", d.addr, err)
	}
	slog.Info("ble: disconnected", "addr", d.addr)
	return nil
}

// characteristic is the subset of bluetooth.DeviceCharacteristic used here.
// The BlueZ backend only has WriteWithoutResponse. It calls WriteValue with
// no write type, which BlueZ sends as a write request when the
// characteristic allows one.
type characteristic interface {
	UUID() bluetooth.UUID
	Read(data []byte) (int, error)
	WriteWithoutResponse(p []byte) (int, error)
}

// Service implements sensortag.GATTService on top of a discovered BlueZ
// service.
type Service struct {
	uuid  bluetooth.UUID
	chars map[bluetooth.UUID]characteristic
}

var (
	_ characteristic        = bluetooth.DeviceCharacteristic{}
	_ sensortag.GATTService = (*Service)(nil)
)

func (s *Service) UUID() bluetooth.UUID { return s.uuid }

func (s *Service) HasCharacteristic(id bluetooth.UUID) bool {
	_, ok := s.chars[id]
	return ok
}

func (s *Service) WriteCharacteristic(ctx context.Context, id bluetooth.UUID, data []byte) (sensortag.Status, error) {
	c, ok := s.chars[id]
	if !ok {
		return sensortag.StatusFailure, fmt.Errorf("%s: %w", id, errCharacteristicNotFound)
	}
	err := await(ctx, func() error {
		_, err := c.WriteWithoutResponse(data)
		return err
	})
	return classify(err), err
}

func (s *Service) ReadCharacteristic(ctx context.Context, id bluetooth.UUID) ([]byte, sensortag.Status, error) {
	c, ok := s.chars[id]
	if !ok {
		return nil, sensortag.StatusFailure, fmt.Errorf("%s: %w", id, errCharacteristicNotFound)
	}
	buf := make([]byte, maxValueLen)
	var n int
	err := await(ctx, func() (err error) {
		n, err = c.Read(buf)
		return err
	})
	if err != nil {
		return nil, classify(err), err
	}
	return buf[:n], sensortag.StatusSuccess, nil
}

// await runs a blocking BlueZ call and returns early when ctx is done. The
// call itself keeps running until BlueZ answers.
func await(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
