package sensortag

import "errors"

var (
	// ErrDeviceNotInitialized is returned when a sensor is used before it
	// has been bound to a GATT service.
	ErrDeviceNotInitialized = errors.New("sensortag: device not initialized")

	// ErrDeviceUnreachable is returned when the transport reports the
	// characteristic as unreachable. The core never retries.
	ErrDeviceUnreachable = errors.New("sensortag: device unreachable, check that it is powered on and in range")

	// ErrInvalidArgument covers undersized frames and out of range settings.
	ErrInvalidArgument = errors.New("sensortag: invalid argument")

	// ErrDeviceNotFound is produced by discovery when no advertisement
	// matches the requested device.
	ErrDeviceNotFound = errors.New("sensortag: device not found")

	// ErrTransport wraps any other failure status reported by the transport.
	ErrTransport = errors.New("sensortag: gatt operation failed")
)
