// Package sensor defines the temperature-sensor contract and an
// explicit driver registry, then probes the board's known I2C sensor
// addresses to find and construct whichever sensor chip is actually
// populated.
package sensor

import (
	"sync"

	"github.com/braiins-s9/hashboard-core/internal/i2cbus"
	"github.com/braiins-s9/hashboard-core/internal/logx"
)

// Measurement is the outcome of reading a (possibly remote/external)
// temperature channel.
type Measurement struct {
	// Present is false when the channel has no sensor wired to it.
	Present bool
	// OpenCircuit means the remote sensor's wire is broken.
	OpenCircuit bool
	// ShortCircuit means the remote sensor's wire is shorted.
	ShortCircuit bool
	// CelsiusOK is the reading, valid only when none of the above fault
	// flags are set.
	CelsiusOK float32
}

// Temperature bundles a sensor's always-present local reading with its
// optional remote/external channel.
type Temperature struct {
	LocalCelsius float32
	Remote       Measurement
}

// Sensor is any temperature sensor the fan controller can read from.
type Sensor interface {
	Init() error
	ReadTemperature() (Temperature, error)
}

// Device is the I2C device handle a driver's constructor receives.
// i2cbus.Device satisfies it directly.
type Device interface {
	Read(reg uint8) (uint8, error)
	Write(reg, val uint8) error
	WriteReadback(reg, regReadback, val uint8) error
}

// Driver describes how to recognize and construct one sensor chip
// model from its I2C manufacturer-ID register value.
type Driver struct {
	ManufacturerID uint8
	New            func(Device) Sensor
}

var (
	registryMu sync.Mutex
	registry   []Driver
)

// RegisterDriver adds d to the set of drivers Probe tries.
// Each driver package calls this from its own init(), following the
// explicit-registration idiom (no reflection-based auto-discovery).
func RegisterDriver(d Driver) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, d)
}

// knownSensorAddresses lists the I2C addresses the board wires a
// temperature sensor to; only one is ever populated per hashboard.
var knownSensorAddresses = []uint8{0x98, 0x9a, 0x9c}

// manufacturerIDReg is the register every supported sensor chip uses
// to report its manufacturer ID.
const manufacturerIDReg = 0xfe

// Probe tries each known sensor address on bus, reads its manufacturer
// ID, and returns the Sensor built by the first registered Driver that
// claims it. It returns (nil, nil) if no populated, recognized sensor
// is found.
func Probe(bus *i2cbus.Bus, log *logx.Logger) (Sensor, error) {
	registryMu.Lock()
	drivers := make([]Driver, len(registry))
	copy(drivers, registry)
	registryMu.Unlock()

	for _, addr := range knownSensorAddresses {
		dev := i2cbus.NewDevice(bus, i2cbus.NewAddress(addr))
		manufacturerID, err := dev.Read(manufacturerIDReg)
		if err != nil {
			log.Warnf("probe %#x: read manufacturer id: %v", addr, err)
			continue
		}
		log.Printf("%#x manufacturer_id=%#x", addr, manufacturerID)

		for _, d := range drivers {
			if d.ManufacturerID == manufacturerID {
				return d.New(dev), nil
			}
		}
	}
	return nil, nil
}
