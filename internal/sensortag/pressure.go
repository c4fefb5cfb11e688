package sensortag

import (
	"context"
	"encoding/binary"
	"fmt"
)

// PressureFrameLen covers temperature (24 bit) followed by pressure (24 bit).
const PressureFrameLen = 6

const calibrationLen = 16

// Config values understood by the barometer.
const (
	pressureEnable    = 0x01
	pressureCalibrate = 0x02
)

// CalibrationData holds c1..c8 as read from the calibration characteristic.
type CalibrationData [8]int

type PressureSensor struct {
	handle
	calibration CalibrationData
}

func NewPressure(service GATTService) *PressureSensor {
	return &PressureSensor{handle: newHandle(Pressure, service)}
}

// Enable switches the barometer on and captures its calibration
// coefficients when the firmware exposes them (CC2541 firmware does, CC2650
// does not).
func (s *PressureSensor) Enable(ctx context.Context) error {
	if err := s.bound(); err != nil {
		return err
	}
	if s.ids.HasCalibration() && s.service.HasCharacteristic(s.ids.Calibration) {
		if err := s.captureCalibration(ctx); err != nil {
			return err
		}
	}
	return s.EnableWith(ctx, []byte{pressureEnable})
}

func (s *PressureSensor) captureCalibration(ctx context.Context) error {
	if err := s.write(ctx, s.ids.Config, []byte{pressureCalibrate}); err != nil {
		return err
	}
	raw, err := s.read(ctx, s.ids.Calibration)
	if err != nil {
		return err
	}
	c, err := DecodeCalibration(raw)
	if err != nil {
		return err
	}
	s.calibration = c
	return nil
}

// Calibration returns a copy of the coefficients captured by Enable. All
// zero until the sensor has been enabled.
func (s *PressureSensor) Calibration() CalibrationData {
	return s.calibration
}

// SetReadPeriod sets the sampling period in 10 ms units (minimum 10).
func (s *PressureSensor) SetReadPeriod(ctx context.Context, period byte) error {
	return s.setPeriod(ctx, period)
}

// DecodeCalibration parses the 16-byte calibration frame: c1..c4 are
// unsigned, c5..c8 signed, all 16-bit little-endian.
func DecodeCalibration(raw []byte) (CalibrationData, error) {
	var c CalibrationData
	if len(raw) < calibrationLen {
		return c, fmt.Errorf("calibration frame: got %d bytes, need %d: %w", len(raw), calibrationLen, ErrInvalidArgument)
	}
	for i := 0; i < 4; i++ {
		c[i] = int(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	for i := 4; i < 8; i++ {
		c[i] = int(int16(binary.LittleEndian.Uint16(raw[2*i:])))
	}
	return c, nil
}

// DecodePressure returns the barometric pressure. The 24-bit raw value is
// in hundredths of the output unit.
func DecodePressure(raw []byte) (float64, error) {
	if err := requireLen(raw, PressureFrameLen, "pressure"); err != nil {
		return 0, err
	}
	return float64(uint24(raw[3:6])) / 100.0, nil
}

// DecodePressureTemperature returns the barometer die temperature in °C.
func DecodePressureTemperature(raw []byte) (float64, error) {
	if err := requireLen(raw, PressureFrameLen, "pressure"); err != nil {
		return 0, err
	}
	return float64(uint24(raw[0:3])) / 100.0, nil
}

func uint24(b []byte) uint32 {
	return uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0])
}
