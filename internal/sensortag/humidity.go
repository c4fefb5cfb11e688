package sensortag

import (
	"context"
	"encoding/binary"
	"fmt"
)

// HumidityFrameLen is the size of a humidity data frame:
// temperature uint16 LE, humidity uint16 LE.
const HumidityFrameLen = 4

type HumiditySensor struct {
	handle
}

func NewHumidity(service GATTService) *HumiditySensor {
	return &HumiditySensor{handle: newHandle(Humidity, service)}
}

// SetReadPeriod sets the sampling period in 10 ms units (minimum 10).
func (s *HumiditySensor) SetReadPeriod(ctx context.Context, period byte) error {
	return s.setPeriod(ctx, period)
}

// DecodeHumidity returns the relative humidity in percent.
func DecodeHumidity(raw []byte) (float64, error) {
	if err := requireLen(raw, HumidityFrameLen, "humidity"); err != nil {
		return 0, err
	}
	hum := binary.LittleEndian.Uint16(raw[2:4])
	// the two low bits are status flags
	hum &^= 0x0003
	return -6 + 125*(float64(hum)/65535), nil
}

// DecodeHumidityTemperature returns the temperature measured by the
// humidity sensor in degrees Celsius.
func DecodeHumidityTemperature(raw []byte) (float64, error) {
	if err := requireLen(raw, HumidityFrameLen, "humidity"); err != nil {
		return 0, err
	}
	t := binary.LittleEndian.Uint16(raw[0:2])
	return -46.85 + 175.72*(float64(t)/65536), nil
}

func requireLen(raw []byte, n int, what string) error {
	if len(raw) < n {
		return fmt.Errorf("%s frame: got %d bytes, need %d: %w", what, len(raw), n, ErrInvalidArgument)
	}
	return nil
}
