// Package tmp451 implements the sensor.Sensor interface for the TI
// TMP451 local/remote temperature monitor, the chip populated on the
// hashboard's sensor header in this board revision.
package tmp451

import (
	"fmt"

	"github.com/braiins-s9/hashboard-core/internal/sensor"
)

// Register map, per the TMP451 datasheet.
const (
	regLocalTemp     = 0x00
	regRemoteTempMSB = 0x01
	regStatus        = 0x02
	regManufacturer  = 0xfe
)

// Status register fault bits relevant to the remote (external) diode.
const (
	statusRemoteOpen  = 1 << 2
	statusRemoteShort = 1 << 3
)

// ManufacturerID is the TMP451's fixed manufacturer-ID register value.
const ManufacturerID = 0x55

func init() {
	sensor.RegisterDriver(sensor.Driver{
		ManufacturerID: ManufacturerID,
		New: func(dev sensor.Device) sensor.Sensor {
			return &Sensor{dev: dev}
		},
	})
}

// Sensor drives one TMP451 over an I2C device handle.
type Sensor struct {
	dev sensor.Device
}

// New constructs a Sensor directly, for callers that already know
// they're talking to a TMP451 (bypassing sensor.Probe's manufacturer-ID
// scan).
func New(dev sensor.Device) *Sensor {
	return &Sensor{dev: dev}
}

// Init confirms the manufacturer ID still reads back as expected.
func (s *Sensor) Init() error {
	id, err := s.dev.Read(regManufacturer)
	if err != nil {
		return fmt.Errorf("tmp451: read manufacturer id: %w", err)
	}
	if id != ManufacturerID {
		return fmt.Errorf("tmp451: unexpected manufacturer id %#x (want %#x)", id, ManufacturerID)
	}
	return nil
}

// ReadTemperature reads the local junction temperature (always
// present) and the remote diode temperature, classifying open/short
// circuit faults on the remote channel via the status register.
func (s *Sensor) ReadTemperature() (sensor.Temperature, error) {
	local, err := s.dev.Read(regLocalTemp)
	if err != nil {
		return sensor.Temperature{}, fmt.Errorf("tmp451: read local temperature: %w", err)
	}

	status, err := s.dev.Read(regStatus)
	if err != nil {
		return sensor.Temperature{}, fmt.Errorf("tmp451: read status: %w", err)
	}

	t := sensor.Temperature{LocalCelsius: int8ToCelsius(local)}

	switch {
	case status&statusRemoteOpen != 0:
		t.Remote = sensor.Measurement{OpenCircuit: true}
	case status&statusRemoteShort != 0:
		t.Remote = sensor.Measurement{ShortCircuit: true}
	default:
		remote, err := s.dev.Read(regRemoteTempMSB)
		if err != nil {
			return sensor.Temperature{}, fmt.Errorf("tmp451: read remote temperature: %w", err)
		}
		t.Remote = sensor.Measurement{Present: true, CelsiusOK: int8ToCelsius(remote)}
	}

	return t, nil
}

func int8ToCelsius(reg uint8) float32 {
	return float32(int8(reg))
}
