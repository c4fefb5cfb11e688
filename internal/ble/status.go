package ble

import (
	"context"
	"errors"
	"strings"

	"cloudpico-sensortag/internal/sensortag"
)

// BlueZ reports a dropped or vanished peer through these D-Bus error names
// and messages.
var unreachableMarkers = []string{
	"org.bluez.Error.NotConnected",
	"Not connected",
	"org.freedesktop.DBus.Error.NoReply",
	"org.freedesktop.DBus.Error.UnknownObject",
	"Software caused connection abort",
	"le-connection-abort-by-local",
}

// classify maps a BlueZ error onto the driver status taxonomy.
func classify(err error) sensortag.Status {
	if err == nil {
		return sensortag.StatusSuccess
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return sensortag.StatusUnreachable
	}
	msg := err.Error()
	for _, m := range unreachableMarkers {
		if strings.Contains(msg, m) {
			return sensortag.StatusUnreachable
		}
	}
	return sensortag.StatusFailure
}
