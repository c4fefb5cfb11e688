package sensortag

import (
	"context"
	"encoding/binary"
)

const TemperatureFrameLen = 4

// TemperatureSensor is the TMP007 infrared thermopile.
type TemperatureSensor struct {
	handle
}

func NewTemperature(service GATTService) *TemperatureSensor {
	return &TemperatureSensor{handle: newHandle(Temperature, service)}
}

// SetReadPeriod sets the sampling period in 10 ms units (minimum 10).
func (s *TemperatureSensor) SetReadPeriod(ctx context.Context, period byte) error {
	return s.setPeriod(ctx, period)
}

// DecodeTemperature returns the object (IR) and ambient (die) temperatures
// in °C. Both are 14-bit values left aligned in an int16, 0.03125 °C/LSB.
func DecodeTemperature(raw []byte) (object, ambient float64, err error) {
	if err := requireLen(raw, TemperatureFrameLen, "temperature"); err != nil {
		return 0, 0, err
	}
	obj := int16(binary.LittleEndian.Uint16(raw[0:2])) >> 2
	amb := int16(binary.LittleEndian.Uint16(raw[2:4])) >> 2
	return float64(obj) * 0.03125, float64(amb) * 0.03125, nil
}
