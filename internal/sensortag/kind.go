// Package sensortag drives the sensors of a TI CC2650 SensorTag over GATT:
// it knows the characteristic layout of every sensor, how to switch sampling
// on and off, and how to turn raw characteristic frames into physical values.
package sensortag

import (
	"fmt"
	"strings"
)

// Kind identifies one of the physical sensors on the tag.
type Kind int

const (
	Movement Kind = iota
	Humidity
	Temperature
	Pressure
	SimpleKeyService
	Luxometer
)

// Kinds lists every sensor kind in declaration order.
var Kinds = []Kind{Movement, Humidity, Temperature, Pressure, SimpleKeyService, Luxometer}

var kindNames = map[Kind]string{
	Movement:         "movement",
	Humidity:         "humidity",
	Temperature:      "temperature",
	Pressure:         "pressure",
	SimpleKeyService: "keys",
	Luxometer:        "luxometer",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is one of the enumerated kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind maps a sensor name (as returned by Kind.String) back to its kind.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown sensor %q", ErrInvalidArgument, s)
}
