package sensortag

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/golang/geo/r3"
)

// MovementFrameLen is the size of a movement frame: gyroscope at 0..5,
// accelerometer at 6..11, magnetometer at 12..17.
const MovementFrameLen = 18

// GyroscopeAxis selects the active gyroscope axes. The value is written
// as-is to the movement config characteristic.
type GyroscopeAxis byte

const (
	AxisX   GyroscopeAxis = 1
	AxisY   GyroscopeAxis = 2
	AxisXY  GyroscopeAxis = 3
	AxisZ   GyroscopeAxis = 4
	AxisXZ  GyroscopeAxis = 5
	AxisYZ  GyroscopeAxis = 6
	AxisXYZ GyroscopeAxis = 7
)

var axisNames = map[GyroscopeAxis]string{
	AxisX: "x", AxisY: "y", AxisXY: "xy", AxisZ: "z", AxisXZ: "xz", AxisYZ: "yz", AxisXYZ: "xyz",
}

func (a GyroscopeAxis) String() string {
	if n, ok := axisNames[a]; ok {
		return n
	}
	return fmt.Sprintf("axis(%d)", byte(a))
}

// Count returns how many gyroscope values a frame carries for a.
func (a GyroscopeAxis) Count() int {
	switch a {
	case AxisX, AxisY, AxisZ:
		return 1
	case AxisXY, AxisXZ, AxisYZ:
		return 2
	case AxisXYZ:
		return 3
	default:
		return 0
	}
}

// ParseGyroscopeAxis accepts the names produced by GyroscopeAxis.String.
func ParseGyroscopeAxis(s string) (GyroscopeAxis, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for a, n := range axisNames {
		if n == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown gyroscope axis %q", ErrInvalidArgument, s)
}

// MovementSensor is the MPU-9250 combo: accelerometer, gyroscope and
// magnetometer behind a single service.
type MovementSensor struct {
	handle
	axis GyroscopeAxis
}

func NewMovement(service GATTService) *MovementSensor {
	return &MovementSensor{handle: newHandle(Movement, service)}
}

// Axis returns the gyroscope axes the sensor was last enabled with.
func (s *MovementSensor) Axis() GyroscopeAxis { return s.axis }

// Enable switches the sensor on with all three gyroscope axes.
func (s *MovementSensor) Enable(ctx context.Context) error {
	return s.EnableAxes(ctx, AxisXYZ)
}

// EnableAxes enables the sensor with the given gyroscope axes and records
// them for decoding. A zero or unknown axis is rejected: writing it would
// switch the sensor off.
func (s *MovementSensor) EnableAxes(ctx context.Context, axis GyroscopeAxis) error {
	if err := s.bound(); err != nil {
		return err
	}
	if axis.Count() == 0 {
		return fmt.Errorf("%s: gyroscope %s: %w", s.kind, axis, ErrInvalidArgument)
	}
	if err := s.EnableWith(ctx, []byte{byte(axis)}); err != nil {
		return err
	}
	s.axis = axis
	return nil
}

// SetAccelerometerReadPeriod sets the movement sampling period in 10 ms
// units. Default is 100 (1 s), lower limit is 10 (100 ms).
func (s *MovementSensor) SetAccelerometerReadPeriod(ctx context.Context, period byte) error {
	return s.setPeriod(ctx, period)
}

// SetMagnetometerReadPeriod writes the same period characteristic as
// SetAccelerometerReadPeriod; the firmware samples all three parts together.
func (s *MovementSensor) SetMagnetometerReadPeriod(ctx context.Context, period byte) error {
	return s.setPeriod(ctx, period)
}

func int16At(raw []byte, off int) int16 {
	return int16(binary.LittleEndian.Uint16(raw[off : off+2]))
}

// DecodeAccelerometer returns acceleration in g for the X, Y and Z axes.
func DecodeAccelerometer(raw []byte) (r3.Vector, error) {
	if err := requireLen(raw, MovementFrameLen, "movement"); err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{
		X: float64(int16At(raw, 6)) / 4096.0,
		Y: float64(int16At(raw, 8)) / 4096.0,
		Z: float64(int16At(raw, 10)) / 4096.0,
	}, nil
}

// DecodeMagnetometer returns the magnetic field in µT.
func DecodeMagnetometer(raw []byte) ([3]float32, error) {
	if err := requireLen(raw, MovementFrameLen, "movement"); err != nil {
		return [3]float32{}, err
	}
	var out [3]float32
	for i := range out {
		out[i] = float32(int16At(raw, 12+2*i)) * 4912.0 / 32768.0
	}
	return out, nil
}

// DecodeGyroscope returns the gyroscope values for the active axes, in the
// order of the axis flags. Unknown axis values decode to a zero 3-vector.
//
// For XYZ the first value is divided by 128 and the others multiplied by
// 128. That is what deployed consumers of this frame expect; it has not been
// reconciled with the 500/65536 deg/s scale used for one and two axes.
func DecodeGyroscope(raw []byte, axis GyroscopeAxis) ([]float32, error) {
	const scale = float32(500) / float32(65536)

	n := axis.Count()
	if n == 0 {
		return []float32{0, 0, 0}, nil
	}
	if err := requireLen(raw, 2*n, "gyroscope"); err != nil {
		return nil, err
	}
	switch n {
	case 1:
		return []float32{float32(int16At(raw, 0)) * scale}, nil
	case 2:
		return []float32{
			float32(int16At(raw, 0)) * scale,
			float32(int16At(raw, 2)) * scale,
		}, nil
	default:
		return []float32{
			float32(int16At(raw, 0)) / 128.0,
			float32(int16At(raw, 2)) * 128.0,
			float32(int16At(raw, 4)) * 128.0,
		}, nil
	}
}
