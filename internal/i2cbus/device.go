package i2cbus

import (
	"fmt"

	"github.com/braiins-s9/hashboard-core/internal/hberrors"
)

// Device ties a shared Bus to one I2C address. Multiple Devices can
// point at the same *Bus (and even the same Address) — the Bus's
// serializing goroutine is what makes sharing one physical line safe,
// the same role the Rust SharedBus<Mutex<T>> wrapper played.
type Device struct {
	bus  *Bus
	addr Address
}

// NewDevice builds a Device addressing addr on bus.
func NewDevice(bus *Bus, addr Address) *Device {
	return &Device{bus: bus, addr: addr}
}

// Read reads one register.
func (d *Device) Read(reg uint8) (uint8, error) {
	return d.bus.Read(d.addr, reg)
}

// Write writes one register.
func (d *Device) Write(reg, val uint8) error {
	return d.bus.Write(d.addr, reg, val)
}

// WriteReadback writes val to reg, then reads regReadback (often the
// same register, sometimes a distinct shadow register) and reports an
// I2cHashchip error if the read-back value doesn't match what was
// written.
func (d *Device) WriteReadback(reg, regReadback, val uint8) error {
	if err := d.Write(reg, val); err != nil {
		return err
	}
	got, err := d.Read(regReadback)
	if err != nil {
		return err
	}
	if got != val {
		return fmt.Errorf("i2cbus: failed to read back register %#x/%#x on %s: written %#x but read back %#x: %w",
			reg, regReadback, d.addr, val, got, hberrors.ErrI2cHashchip)
	}
	return nil
}
