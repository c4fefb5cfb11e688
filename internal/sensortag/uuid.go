package sensortag

import (
	"fmt"

	"tinygo.org/x/bluetooth"
)

// Identifiers addresses one sensor on the tag. Period and Calibration are
// optional; their zero value means the sensor has no such characteristic.
type Identifiers struct {
	Service     bluetooth.UUID
	Config      bluetooth.UUID
	Data        bluetooth.UUID
	Period      bluetooth.UUID
	Calibration bluetooth.UUID
}

func (ids Identifiers) HasConfig() bool { return ids.Config != bluetooth.UUID{} }
func (ids Identifiers) HasPeriod() bool { return ids.Period != bluetooth.UUID{} }
func (ids Identifiers) HasCalibration() bool { return ids.Calibration != bluetooth.UUID{} }

// TI vendor UUIDs are F000xxxx-0451-4000-B000-000000000000.
func tiUUID(short uint16) bluetooth.UUID {
	return mustParseUUID(fmt.Sprintf("f000%04x-0451-4000-b000-000000000000", short))
}

func mustParseUUID(s string) bluetooth.UUID {
	u, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(fmt.Sprintf("sensortag: bad uuid %q: %v", s, err))
	}
	return u
}

// identifiers is built once and only read afterwards.
var identifiers = map[Kind]Identifiers{
	Temperature: {
		Service: tiUUID(0xaa00),
		Data:    tiUUID(0xaa01),
		Config:  tiUUID(0xaa02),
		Period:  tiUUID(0xaa03),
	},
	Humidity: {
		Service: tiUUID(0xaa20),
		Data:    tiUUID(0xaa21),
		Config:  tiUUID(0xaa22),
		Period:  tiUUID(0xaa23),
	},
	Pressure: {
		Service:     tiUUID(0xaa40),
		Data:        tiUUID(0xaa41),
		Config:      tiUUID(0xaa42),
		Calibration: tiUUID(0xaa43),
		Period:      tiUUID(0xaa44),
	},
	Luxometer: {
		Service: tiUUID(0xaa70),
		Data:    tiUUID(0xaa71),
		Config:  tiUUID(0xaa72),
		Period:  tiUUID(0xaa73),
	},
	Movement: {
		Service: tiUUID(0xaa80),
		Data:    tiUUID(0xaa81),
		Config:  tiUUID(0xaa82),
		Period:  tiUUID(0xaa83),
	},
	SimpleKeyService: {
		Service: bluetooth.New16BitUUID(0xffe0),
		Data:    bluetooth.New16BitUUID(0xffe1),
	},
}

// IdentifiersFor returns the characteristic layout of kind. Kinds come from
// the enumeration above, so an unknown kind is a programming error.
func IdentifiersFor(kind Kind) Identifiers {
	ids, ok := identifiers[kind]
	if !ok {
		panic(fmt.Sprintf("sensortag: no identifiers for %s", kind))
	}
	return ids
}

// KindForService returns the sensor kind served by the given service UUID.
func KindForService(service bluetooth.UUID) (Kind, bool) {
	for k, ids := range identifiers {
		if ids.Service == service {
			return k, true
		}
	}
	return 0, false
}
