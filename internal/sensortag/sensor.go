package sensortag

import (
	"context"
	"fmt"
	"reflect"

	"tinygo.org/x/bluetooth"
)

// Status is the completion status of a single GATT operation.
type Status int

const (
	StatusSuccess Status = iota
	StatusUnreachable
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusUnreachable:
		return "unreachable"
	default:
		return "failure"
	}
}

// GATTService is a discovered GATT service on a connected tag. Calls block
// until the platform stack completes the operation or ctx is done.
type GATTService interface {
	UUID() bluetooth.UUID
	HasCharacteristic(id bluetooth.UUID) bool
	WriteCharacteristic(ctx context.Context, id bluetooth.UUID, data []byte) (Status, error)
	ReadCharacteristic(ctx context.Context, id bluetooth.UUID) ([]byte, Status, error)
}

// Sensor is the lifecycle every sensor kind shares.
type Sensor interface {
	Kind() Kind
	Name() string
	Enabled() bool
	Enable(ctx context.Context) error
	EnableWith(ctx context.Context, payload []byte) error
	Disable(ctx context.Context) error
	ReadRaw(ctx context.Context) ([]byte, error)
}

// MinReadPeriod is the shortest sampling period the firmware accepts, in
// 10 ms units.
const MinReadPeriod byte = 10

// handle binds a kind to a GATT service. It is not safe for overlapping use.
type handle struct {
	kind    Kind
	ids     Identifiers
	service GATTService

	enabled   bool
	configLen int
}

func newHandle(kind Kind, service GATTService) handle {
	if isNil(service) {
		service = nil
	}
	return handle{
		kind:      kind,
		ids:       IdentifiersFor(kind),
		service:   service,
		configLen: 1,
	}
}

// isNil also catches a nil pointer stored in a non-nil interface.
func isNil(service GATTService) bool {
	if service == nil {
		return true
	}
	v := reflect.ValueOf(service)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func (h *handle) Kind() Kind { return h.kind }
func (h *handle) Name() string { return h.kind.String() }
func (h *handle) Enabled() bool { return h.enabled }
func (h *handle) Identifiers() Identifiers { return h.ids }

func (h *handle) bound() error {
	if h.service == nil {
		return fmt.Errorf("%s: %w", h.kind, ErrDeviceNotInitialized)
	}
	return nil
}

// Enable switches sampling on with the default single enable byte.
func (h *handle) Enable(ctx context.Context) error {
	return h.EnableWith(ctx, []byte{0x01})
}

// EnableWith writes payload to the configuration characteristic.
func (h *handle) EnableWith(ctx context.Context, payload []byte) error {
	if err := h.bound(); err != nil {
		return err
	}
	if len(payload) == 0 {
		return fmt.Errorf("%s: empty config payload: %w", h.kind, ErrInvalidArgument)
	}
	if h.ids.HasConfig() {
		if err := h.write(ctx, h.ids.Config, payload); err != nil {
			return err
		}
	}
	h.configLen = len(payload)
	h.enabled = true
	return nil
}

// Disable writes an all-zero payload as long as the last enable payload.
func (h *handle) Disable(ctx context.Context) error {
	if err := h.bound(); err != nil {
		return err
	}
	if h.ids.HasConfig() {
		if err := h.write(ctx, h.ids.Config, make([]byte, h.configLen)); err != nil {
			return err
		}
	}
	h.enabled = false
	return nil
}

// ReadRaw reads the current frame from the data characteristic.
func (h *handle) ReadRaw(ctx context.Context) ([]byte, error) {
	if err := h.bound(); err != nil {
		return nil, err
	}
	return h.read(ctx, h.ids.Data)
}

func (h *handle) setPeriod(ctx context.Context, period byte) error {
	if err := h.bound(); err != nil {
		return err
	}
	if period < MinReadPeriod {
		return fmt.Errorf("%s: period %d below %d (100ms): %w", h.kind, period, MinReadPeriod, ErrInvalidArgument)
	}
	if !h.ids.HasPeriod() {
		return fmt.Errorf("%s: no period characteristic: %w", h.kind, ErrInvalidArgument)
	}
	return h.write(ctx, h.ids.Period, []byte{period})
}

func (h *handle) write(ctx context.Context, id bluetooth.UUID, data []byte) error {
	status, err := h.service.WriteCharacteristic(ctx, id, data)
	return statusError(h.kind, "write", id, status, err)
}

func (h *handle) read(ctx context.Context, id bluetooth.UUID) ([]byte, error) {
	data, status, err := h.service.ReadCharacteristic(ctx, id)
	if err := statusError(h.kind, "read", id, status, err); err != nil {
		return nil, err
	}
	return data, nil
}

func statusError(kind Kind, op string, id bluetooth.UUID, status Status, err error) error {
	switch status {
	case StatusSuccess:
		if err != nil {
			return fmt.Errorf("%s: %s %s: %w", kind, op, id, err)
		}
		return nil
	case StatusUnreachable:
		return fmt.Errorf("%s: %s %s: %w", kind, op, id, ErrDeviceUnreachable)
	default:
		if err != nil {
			return fmt.Errorf("%s: %s %s: %w: %w", kind, op, id, ErrTransport, err)
		}
		return fmt.Errorf("%s: %s %s: %w", kind, op, id, ErrTransport)
	}
}

// New binds a sensor of the given kind to service.
func New(kind Kind, service GATTService) (Sensor, error) {
	switch kind {
	case Movement:
		return NewMovement(service), nil
	case Humidity:
		return NewHumidity(service), nil
	case Temperature:
		return NewTemperature(service), nil
	case Pressure:
		return NewPressure(service), nil
	case SimpleKeyService:
		return NewKeys(service), nil
	case Luxometer:
		return NewLuxometer(service), nil
	default:
		return nil, fmt.Errorf("%w: unknown sensor kind %d", ErrInvalidArgument, int(kind))
	}
}
