package sensortag

import (
	"context"
	"encoding/binary"
	"math"
)

const LuxFrameLen = 2

type LuxometerSensor struct {
	handle
}

func NewLuxometer(service GATTService) *LuxometerSensor {
	return &LuxometerSensor{handle: newHandle(Luxometer, service)}
}

// SetReadPeriod sets the sampling period in 10 ms units. The firmware
// default is 80 (800 ms); anything below 10 is rejected.
func (s *LuxometerSensor) SetReadPeriod(ctx context.Context, period byte) error {
	return s.setPeriod(ctx, period)
}

// DecodeLux returns the ambient light level in lux. The frame is a 16-bit
// float: 4-bit exponent in the top nibble, 12-bit mantissa below it.
func DecodeLux(raw []byte) (float64, error) {
	if err := requireLen(raw, LuxFrameLen, "luxometer"); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(raw[0:2])
	exponent := int((v & 0xF000) >> 12)
	mantissa := float64(v & 0x0FFF)
	return mantissa * math.Pow(2, float64(exponent)) / 100.0, nil
}
