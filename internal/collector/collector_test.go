package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tinygo.org/x/bluetooth"

	"cloudpico-sensortag/internal/sensortag"
	"cloudpico-sensortag/shared/types"
)

type fakeService struct {
	mu     sync.Mutex
	uuid   bluetooth.UUID
	values map[bluetooth.UUID][]byte
	status sensortag.Status
}

func newFakeService(kind sensortag.Kind, frame []byte) *fakeService {
	ids := sensortag.IdentifiersFor(kind)
	return &fakeService{
		uuid:   ids.Service,
		values: map[bluetooth.UUID][]byte{ids.Data: frame},
	}
}

func (f *fakeService) UUID() bluetooth.UUID { return f.uuid }

func (f *fakeService) HasCharacteristic(id bluetooth.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.values[id]
	return ok
}

func (f *fakeService) WriteCharacteristic(_ context.Context, id bluetooth.UUID, data []byte) (sensortag.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status != sensortag.StatusSuccess {
		return f.status, nil
	}
	f.values[id] = append([]byte(nil), data...)
	return sensortag.StatusSuccess, nil
}

func (f *fakeService) ReadCharacteristic(_ context.Context, id bluetooth.UUID) ([]byte, sensortag.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status != sensortag.StatusSuccess {
		return nil, f.status, nil
	}
	return f.values[id], sensortag.StatusSuccess, nil
}

func (f *fakeService) value(id bluetooth.UUID) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[id]
}

type fakePublisher struct {
	mu  sync.Mutex
	got []types.Telemetry
	err error
}

func (p *fakePublisher) PublishTelemetry(t types.Telemetry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.got = append(p.got, t)
	return nil
}

func (p *fakePublisher) count(sensor string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.got {
		if t.Sensor == sensor {
			n++
		}
	}
	return n
}

func TestEnable_AppliesAxisAndPeriod(t *testing.T) {
	movSvc := newFakeService(sensortag.Movement, make([]byte, sensortag.MovementFrameLen))
	luxSvc := newFakeService(sensortag.Luxometer, []byte{0xFF, 0x0F})
	keySvc := newFakeService(sensortag.SimpleKeyService, []byte{0x01})
	mov := sensortag.NewMovement(movSvc)
	lux := sensortag.NewLuxometer(luxSvc)
	keys := sensortag.NewKeys(keySvc)

	c := New(Options{GyroAxis: sensortag.AxisXY, Period: 50}, []sensortag.Sensor{mov, lux, keys}, &fakePublisher{})
	if err := c.Enable(t.Context()); err != nil {
		t.Fatalf("Enable() error = %v, want nil", err)
	}

	movIDs := sensortag.IdentifiersFor(sensortag.Movement)
	if got := movSvc.value(movIDs.Config); len(got) != 1 || got[0] != byte(sensortag.AxisXY) {
		t.Errorf("movement config = % X, want 03", got)
	}
	if got := movSvc.value(movIDs.Period); len(got) != 1 || got[0] != 50 {
		t.Errorf("movement period = % X, want 32", got)
	}
	luxIDs := sensortag.IdentifiersFor(sensortag.Luxometer)
	if got := luxSvc.value(luxIDs.Period); len(got) != 1 || got[0] != 50 {
		t.Errorf("luxometer period = % X, want 32", got)
	}
	for _, s := range []sensortag.Sensor{mov, lux, keys} {
		if !s.Enabled() {
			t.Errorf("%s.Enabled() = false, want true", s.Name())
		}
	}

	if err := c.Disable(t.Context()); err != nil {
		t.Fatalf("Disable() error = %v, want nil", err)
	}
	if got := luxSvc.value(luxIDs.Config); len(got) != 1 || got[0] != 0 {
		t.Errorf("luxometer config after Disable = % X, want 00", got)
	}
}

func TestEnable_Unreachable(t *testing.T) {
	svc := newFakeService(sensortag.Humidity, nil)
	svc.status = sensortag.StatusUnreachable
	c := New(Options{}, []sensortag.Sensor{sensortag.NewHumidity(svc)}, &fakePublisher{})

	if err := c.Enable(t.Context()); !errors.Is(err, sensortag.ErrDeviceUnreachable) {
		t.Errorf("Enable() error = %v, want ErrDeviceUnreachable", err)
	}
}

func TestEnable_PartialFailureDisablesEnabled(t *testing.T) {
	luxSvc := newFakeService(sensortag.Luxometer, []byte{0xFF, 0x0F})
	humSvc := newFakeService(sensortag.Humidity, nil)
	humSvc.status = sensortag.StatusFailure
	lux := sensortag.NewLuxometer(luxSvc)
	hum := sensortag.NewHumidity(humSvc)
	c := New(Options{}, []sensortag.Sensor{lux, hum}, &fakePublisher{})

	if err := c.Enable(t.Context()); !errors.Is(err, sensortag.ErrTransport) {
		t.Fatalf("Enable() error = %v, want ErrTransport", err)
	}
	if lux.Enabled() {
		t.Errorf("luxometer Enabled() = true after failed Enable, want false")
	}
	ids := sensortag.IdentifiersFor(sensortag.Luxometer)
	if got := luxSvc.value(ids.Config); len(got) != 1 || got[0] != 0 {
		t.Errorf("luxometer config = % X, want 00", got)
	}
}

func TestEnable_UnreachableSkipsRollback(t *testing.T) {
	luxSvc := newFakeService(sensortag.Luxometer, []byte{0xFF, 0x0F})
	humSvc := newFakeService(sensortag.Humidity, nil)
	humSvc.status = sensortag.StatusUnreachable
	lux := sensortag.NewLuxometer(luxSvc)
	c := New(Options{}, []sensortag.Sensor{lux, sensortag.NewHumidity(humSvc)}, &fakePublisher{})

	if err := c.Enable(t.Context()); !errors.Is(err, sensortag.ErrDeviceUnreachable) {
		t.Fatalf("Enable() error = %v, want ErrDeviceUnreachable", err)
	}
	ids := sensortag.IdentifiersFor(sensortag.Luxometer)
	if got := luxSvc.value(ids.Config); len(got) != 1 || got[0] != 0x01 {
		t.Errorf("luxometer config = % X, want 01 left as written", got)
	}
}

func TestPoll_PublishesTelemetry(t *testing.T) {
	pub := &fakePublisher{}
	svc := newFakeService(sensortag.Luxometer, []byte{0xFF, 0x0F})
	c := New(Options{StationID: "lab", Device: "B0:B4:48:C9:4E:01"}, nil, pub)
	stamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return stamp }

	if err := c.Poll(t.Context(), sensortag.NewLuxometer(svc), 7); err != nil {
		t.Fatalf("Poll() error = %v, want nil", err)
	}
	if len(pub.got) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.got))
	}
	got := pub.got[0]
	if got.StationID != "lab" || got.Device != "B0:B4:48:C9:4E:01" || got.Sensor != "luxometer" {
		t.Errorf("telemetry identity = %q/%q/%q", got.StationID, got.Device, got.Sensor)
	}
	if got.Values["lux"] != 40.95 || got.Units["lux"] != "lx" {
		t.Errorf("values = %v units = %v, want lux 40.95 lx", got.Values, got.Units)
	}
	if got.Raw != "FF0F" {
		t.Errorf("Raw = %q, want FF0F", got.Raw)
	}
	if got.Sequence == nil || *got.Sequence != 7 {
		t.Errorf("Sequence = %v, want 7", got.Sequence)
	}
	if !got.Timestamp.Equal(stamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, stamp)
	}
}

func TestPoll_UsesMovementAxis(t *testing.T) {
	pub := &fakePublisher{}
	svc := newFakeService(sensortag.Movement, make([]byte, sensortag.MovementFrameLen))
	mov := sensortag.NewMovement(svc)
	if err := mov.EnableAxes(t.Context(), sensortag.AxisZ); err != nil {
		t.Fatalf("EnableAxes() error = %v, want nil", err)
	}

	c := New(Options{}, nil, pub)
	if err := c.Poll(t.Context(), mov, 1); err != nil {
		t.Fatalf("Poll() error = %v, want nil", err)
	}
	vals := pub.got[0].Values
	if _, ok := vals["gyro_z"]; !ok {
		t.Errorf("values = %v, want gyro_z", vals)
	}
	if _, ok := vals["gyro_x"]; ok {
		t.Errorf("values = %v, want no gyro_x for z-only axis", vals)
	}
}

func TestPoll_Errors(t *testing.T) {
	t.Run("short frame", func(t *testing.T) {
		svc := newFakeService(sensortag.Pressure, []byte{1, 2})
		c := New(Options{}, nil, &fakePublisher{})
		if err := c.Poll(t.Context(), sensortag.NewPressure(svc), 1); !errors.Is(err, sensortag.ErrInvalidArgument) {
			t.Errorf("Poll() error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("publish failure", func(t *testing.T) {
		svc := newFakeService(sensortag.Luxometer, []byte{0, 0})
		boom := errors.New("broker down")
		c := New(Options{}, nil, &fakePublisher{err: boom})
		if err := c.Poll(t.Context(), sensortag.NewLuxometer(svc), 1); !errors.Is(err, boom) {
			t.Errorf("Poll() error = %v, want %v", err, boom)
		}
	})
}

func TestRun_PollsUntilCanceled(t *testing.T) {
	pub := &fakePublisher{}
	hum := sensortag.NewHumidity(newFakeService(sensortag.Humidity, []byte{0, 0, 0, 0}))
	lux := sensortag.NewLuxometer(newFakeService(sensortag.Luxometer, []byte{1}))
	c := New(Options{Interval: 5 * time.Millisecond}, []sensortag.Sensor{hum, lux}, pub)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for pub.count("humidity") < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if n := pub.count("humidity"); n < 3 {
		t.Errorf("humidity readings = %d, want at least 3", n)
	}
	// the luxometer frame is short; its loop keeps going without publishing
	if n := pub.count("luxometer"); n != 0 {
		t.Errorf("luxometer readings = %d, want 0", n)
	}
}

func TestRun_StopsOnUnreachable(t *testing.T) {
	svc := newFakeService(sensortag.Humidity, []byte{0, 0, 0, 0})
	svc.status = sensortag.StatusUnreachable
	c := New(Options{Interval: time.Millisecond}, []sensortag.Sensor{sensortag.NewHumidity(svc)}, &fakePublisher{})

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()
	if err := c.Run(ctx); !errors.Is(err, sensortag.ErrDeviceUnreachable) {
		t.Errorf("Run() error = %v, want ErrDeviceUnreachable", err)
	}
}
