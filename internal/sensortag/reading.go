package sensortag

import "fmt"

// Field is one decoded quantity.
type Field struct {
	Name  string
	Unit  string
	Value float64
}

// Reading is a decoded frame in a kind-independent shape, used where
// readings leave the driver (telemetry, logs, the decode tool).
type Reading struct {
	Kind   Kind
	Fields []Field
}

// Value returns the named field.
func (r Reading) Value(name string) (float64, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}

var gyroNames = map[GyroscopeAxis][]string{
	AxisX:   {"gyro_x"},
	AxisY:   {"gyro_y"},
	AxisZ:   {"gyro_z"},
	AxisXY:  {"gyro_x", "gyro_y"},
	AxisXZ:  {"gyro_x", "gyro_z"},
	AxisYZ:  {"gyro_y", "gyro_z"},
	AxisXYZ: {"gyro_x", "gyro_y", "gyro_z"},
}

// Decode runs the decoder for kind over raw. axis is only used for
// Movement frames.
func Decode(kind Kind, raw []byte, axis GyroscopeAxis) (Reading, error) {
	r := Reading{Kind: kind}
	switch kind {
	case Humidity:
		hum, err := DecodeHumidity(raw)
		if err != nil {
			return r, err
		}
		t, err := DecodeHumidityTemperature(raw)
		if err != nil {
			return r, err
		}
		r.Fields = []Field{{"humidity", "%RH", hum}, {"temperature", "°C", t}}
	case Luxometer:
		lux, err := DecodeLux(raw)
		if err != nil {
			return r, err
		}
		r.Fields = []Field{{"lux", "lx", lux}}
	case Pressure:
		p, err := DecodePressure(raw)
		if err != nil {
			return r, err
		}
		t, err := DecodePressureTemperature(raw)
		if err != nil {
			return r, err
		}
		r.Fields = []Field{{"pressure", "Pa", p}, {"temperature", "°C", t}}
	case Temperature:
		obj, amb, err := DecodeTemperature(raw)
		if err != nil {
			return r, err
		}
		r.Fields = []Field{{"object", "°C", obj}, {"ambient", "°C", amb}}
	case SimpleKeyService:
		k, err := DecodeKeys(raw)
		if err != nil {
			return r, err
		}
		r.Fields = []Field{{"user", "", boolValue(k.User)}, {"power", "", boolValue(k.Power)}, {"reed", "", boolValue(k.Reed)}}
	case Movement:
		acc, err := DecodeAccelerometer(raw)
		if err != nil {
			return r, err
		}
		mag, err := DecodeMagnetometer(raw)
		if err != nil {
			return r, err
		}
		gyro, err := DecodeGyroscope(raw, axis)
		if err != nil {
			return r, err
		}
		r.Fields = []Field{
			{"acc_x", "g", acc.X}, {"acc_y", "g", acc.Y}, {"acc_z", "g", acc.Z},
			{"mag_x", "µT", float64(mag[0])}, {"mag_y", "µT", float64(mag[1])}, {"mag_z", "µT", float64(mag[2])},
		}
		// unknown axes decode to zeros with no axis names
		if names, ok := gyroNames[axis]; ok {
			for i, name := range names {
				r.Fields = append(r.Fields, Field{name, "deg/s", float64(gyro[i])})
			}
		}
	default:
		return r, fmt.Errorf("%w: unknown sensor kind %d", ErrInvalidArgument, int(kind))
	}
	return r, nil
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
