package i2cbus

import (
	"fmt"

	"github.com/braiins-s9/hashboard-core/internal/hberrors"
)

// Transport is the raw, blocking I2C line-level operation a Bus
// serializes access to — one real /dev/i2c-N device, or a fake for
// tests. It mirrors AsyncI2cDev's raw read/write-of-N-bytes shape: the
// register-oriented Read/Write on Bus is built on top of it as a
// one-byte-address write followed by a one-byte read (or a combined
// two-byte write), not a property of the transport itself.
type Transport interface {
	ReadBytes(hwAddr uint8, n int) ([]byte, error)
	WriteBytes(hwAddr uint8, data []byte) error
}

type readRequest struct {
	addr  Address
	reg   uint8
	reply chan readResult
}

type readResult struct {
	val uint8
	err error
}

type writeRequest struct {
	addr  Address
	reg   uint8
	val   uint8
	reply chan error
}

// Bus serializes all I2C traffic through one goroutine, the way
// async_i2c's serve_requests loop owns the physical device exclusively
// and every Device talks to it only via request/reply channels.
type Bus struct {
	transport Transport
	reads     chan readRequest
	writes    chan writeRequest
	done      chan struct{}
}

// NewBus starts the serializing goroutine over transport. Close stops
// it.
func NewBus(transport Transport) *Bus {
	b := &Bus{
		transport: transport,
		reads:     make(chan readRequest),
		writes:    make(chan writeRequest),
		done:      make(chan struct{}),
	}
	go b.serve()
	return b
}

func (b *Bus) serve() {
	for {
		select {
		case req := <-b.reads:
			req.reply <- b.doRead(req.addr, req.reg)
		case req := <-b.writes:
			req.reply <- b.doWrite(req.addr, req.reg, req.val)
		case <-b.done:
			return
		}
	}
}

func (b *Bus) doRead(addr Address, reg uint8) readResult {
	if err := b.transport.WriteBytes(addr.WritableHWAddr(), []byte{reg}); err != nil {
		return readResult{err: fmt.Errorf("i2cbus: select register %#x on %s: %w", reg, addr, wrapI2c(err))}
	}
	data, err := b.transport.ReadBytes(addr.ReadableHWAddr(), 1)
	if err != nil {
		return readResult{err: fmt.Errorf("i2cbus: read register %#x on %s: %w", reg, addr, wrapI2c(err))}
	}
	if len(data) == 0 {
		return readResult{err: fmt.Errorf("i2cbus: empty read of register %#x on %s: %w", reg, addr, hberrors.ErrI2c)}
	}
	return readResult{val: data[0]}
}

func (b *Bus) doWrite(addr Address, reg, val uint8) error {
	if err := b.transport.WriteBytes(addr.WritableHWAddr(), []byte{reg, val}); err != nil {
		return fmt.Errorf("i2cbus: write register %#x on %s: %w", reg, addr, wrapI2c(err))
	}
	return nil
}

// Read reads one register from a device at addr.
func (b *Bus) Read(addr Address, reg uint8) (uint8, error) {
	reply := make(chan readResult, 1)
	b.reads <- readRequest{addr: addr, reg: reg, reply: reply}
	r := <-reply
	return r.val, r.err
}

// Write writes one register on a device at addr.
func (b *Bus) Write(addr Address, reg, val uint8) error {
	reply := make(chan error, 1)
	b.writes <- writeRequest{addr: addr, reg: reg, val: val, reply: reply}
	return <-reply
}

// Close stops the bus's serializing goroutine. The Bus must not be
// used afterward.
func (b *Bus) Close() {
	close(b.done)
}

func wrapI2c(cause error) error {
	return fmt.Errorf("%w: %v", hberrors.ErrI2c, cause)
}
