// Package hberrors defines the error-kind taxonomy used across the
// hashboard core: kernel/MMIO I/O failures, FIFO timeouts, chip protocol
// violations, I2C bus errors, and bring-up configuration failures.
//
// Components wrap a sentinel with fmt.Errorf("...: %w", Sentinel) so
// callers can classify failures with errors.Is while still getting a
// human-readable message, following the plain wrapping idiom used
// throughout the driver layer (e.g. "failed to connect to hasher-server: %w").
package hberrors

import "errors"

var (
	// ErrIO is a kernel-level I/O failure on an MMIO/UIO region.
	ErrIO = errors.New("io")
	// ErrUio is a UIO-device-specific failure (map, open, interrupt wait).
	ErrUio = errors.New("uio")
	// ErrFifoTimedOut means an expected FIFO reply did not arrive within
	// the deadline. Usually recoverable: drop and continue.
	ErrFifoTimedOut = errors.New("fifo: timed out")
	// ErrHashchip is a protocol violation: wrong reply count, readback
	// mismatch, CRC or structural decode failure.
	ErrHashchip = errors.New("hashchip")
	// ErrI2c is a bus-level NAK or transport failure.
	ErrI2c = errors.New("i2c")
	// ErrI2cHashchip is an I2C readback mismatch on a chip-adjacent device.
	ErrI2cHashchip = errors.New("i2c hashchip")
	// ErrPower is a voltage-rail configuration/translation failure.
	ErrPower = errors.New("power")
	// ErrPLL is a PLL frequency-table translation failure.
	ErrPLL = errors.New("pll")
	// ErrBaudRate is a UART baud-divisor translation failure.
	ErrBaudRate = errors.New("baud rate")
	// ErrGpio is a GPIO wiring or device-tree misconfiguration.
	ErrGpio = errors.New("gpio")
	// ErrUioDevice is a named-UIO-device lookup/open failure.
	ErrUioDevice = errors.New("uio device")
)
