package chipcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/braiins-s9/hashboard-core/internal/hberrors"
	"github.com/braiins-s9/hashboard-core/internal/logx"
)

// commandReadTimeout bounds how long a register read waits for each
// reply word before concluding no more are coming.
const commandReadTimeout = 100 * time.Millisecond

// commandFlushTimeout is how long flushCommandRx waits for trailing
// garbage replies after a write, before declaring the queue clean.
const commandFlushTimeout = 5 * time.Microsecond

// replyWords is the word count of one command-channel reply frame.
const replyWords = 2

// CommandIO is the FPGA command-FIFO transport a Context drives. The
// fpga.Bridge satisfies it directly.
type CommandIO interface {
	SendCommand(frame []byte) error
	RecvResponse(timeout time.Duration, wordCount int) ([]byte, error)
}

// innerContext holds the command FIFO handle and the chain's known
// chip count (used to validate broadcast reply counts). No locking of
// its own: callers serialize access through Context.
type innerContext struct {
	io        CommandIO
	chipCount *int
	log       *logx.Logger
}

func (c *innerContext) readRegister(regNum uint8, addr ChipAddress) ([][]byte, error) {
	cmd := buildCommandFrame(opGetStatus, addr, regNum, nil)
	if err := c.io.SendCommand(cmd); err != nil {
		return nil, fmt.Errorf("chipcmd: send read register %#x: %w", regNum, err)
	}

	var responses [][]byte
	for {
		reply, err := c.io.RecvResponse(commandReadTimeout, replyWords)
		if err != nil {
			if hberrorsIsTimeout(err) {
				break
			}
			return nil, fmt.Errorf("chipcmd: recv response for register %#x: %w", regNum, err)
		}
		responses = append(responses, reply)
		if !addr.IsBroadcast() {
			break
		}
	}

	if addr.IsBroadcast() {
		if c.chipCount != nil && len(responses) != *c.chipCount {
			return nil, fmt.Errorf("chipcmd: %d replies to broadcast read of register %#x, expected %d chips: %w",
				len(responses), regNum, *c.chipCount, hberrors.ErrHashchip)
		}
	} else if len(responses) != 1 {
		return nil, fmt.Errorf("chipcmd: no reply to unicast read of register %#x from %s: %w", regNum, addr, hberrors.ErrHashchip)
	}
	return responses, nil
}

func (c *innerContext) flushCommandRx() error {
	for {
		reply, err := c.io.RecvResponse(commandFlushTimeout, replyWords)
		if err != nil {
			if hberrorsIsTimeout(err) {
				return nil
			}
			return fmt.Errorf("chipcmd: flush command rx: %w", err)
		}
		c.log.Warnf("extra garbage command response: %x", reply)
	}
}

func (c *innerContext) writeRegister(regNum uint8, addr ChipAddress, value []byte) error {
	cmd := buildCommandFrame(opSetConfig, addr, regNum, value)
	if err := c.io.SendCommand(cmd); err != nil {
		return fmt.Errorf("chipcmd: send write register %#x: %w", regNum, err)
	}
	// Chips sometimes emit spurious command-rx garbage around a PLL
	// reconfiguration; a following read would otherwise misreport too
	// many replies, so the queue is drained here before returning.
	return c.flushCommandRx()
}

func (c *innerContext) sendRawCommand(cmd []byte) error {
	return c.io.SendCommand(cmd)
}

func (c *innerContext) setChipCount(n int) {
	c.chipCount = &n
}

// Context is the locking, cheaply-copyable handle to a chain's command
// channel. All register access funnels through its mutex so only one
// command/reply exchange is in flight at a time; sem (shared across
// every Context on the same physical command FIFO) additionally bounds
// how many hashchains' command operations can be mid-flight together
// when several chains share one FIFO.
type Context struct {
	mu    sync.Mutex
	inner *innerContext
	sem   *semaphore.Weighted
}

// NewContext builds a Context over io. sem may be nil if this chain
// has exclusive use of its command FIFO; when multiple chains share a
// FIFO, pass the same *semaphore.Weighted to each Context.
func NewContext(io CommandIO, sem *semaphore.Weighted, log *logx.Logger) *Context {
	if sem == nil {
		sem = semaphore.NewWeighted(1)
	}
	return &Context{
		inner: &innerContext{io: io, log: log},
		sem:   sem,
	}
}

func (c *Context) withLock(ctx context.Context, fn func() error) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("chipcmd: acquire command channel: %w", err)
	}
	defer c.sem.Release(1)

	c.mu.Lock()
	defer c.mu.Unlock()
	return fn()
}

// SetChipCount records the chain's chip count so broadcast reads can
// validate their reply count.
func (c *Context) SetChipCount(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.setChipCount(n)
}

// SendRawCommand issues a pre-built command frame without going
// through the register read/write helpers, for chip-specific bring-up
// sequences that don't fit the register model.
func (c *Context) SendRawCommand(ctx context.Context, cmd []byte) error {
	return c.withLock(ctx, func() error {
		return c.inner.sendRawCommand(cmd)
	})
}

// ReadRegister reads addr's copy (or copies, if addr is broadcast) of
// register T, using newT to construct empty instances to unpack into.
func ReadRegister[T Register](ctx context.Context, c *Context, addr ChipAddress, newT func() T) ([]T, error) {
	var out []T
	err := c.withLock(ctx, func() error {
		regNum := newT().RegNum()
		raw, err := c.inner.readRegister(regNum, addr)
		if err != nil {
			return err
		}
		out = make([]T, 0, len(raw))
		for _, r := range raw {
			v := newT()
			if err := v.Unpack(r); err != nil {
				return fmt.Errorf("chipcmd: unpack register %#x reply: %w", regNum, err)
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

// ReadOneRegister reads a single chip's register. addr must not be
// broadcast; calling it with a broadcast address is a programming
// error in the caller.
func ReadOneRegister[T Register](ctx context.Context, c *Context, addr ChipAddress, newT func() T) (T, error) {
	if addr.IsBroadcast() {
		panic("chipcmd: ReadOneRegister called with a broadcast ChipAddress")
	}
	values, err := ReadRegister(ctx, c, addr, newT)
	var zero T
	if err != nil {
		return zero, err
	}
	if len(values) != 1 {
		return zero, fmt.Errorf("chipcmd: expected exactly one reply, got %d: %w", len(values), hberrors.ErrHashchip)
	}
	return values[0], nil
}

// WriteRegister programs addr's copy (or copies) of register value.
func WriteRegister[T Register](ctx context.Context, c *Context, addr ChipAddress, value T) error {
	return c.withLock(ctx, func() error {
		return c.inner.writeRegister(value.RegNum(), addr, value.Pack())
	})
}

// WriteRegisterReadback writes value then reads it back, returning a
// Hashchip error if any addressed chip echoes a different value.
func WriteRegisterReadback[T Register](ctx context.Context, c *Context, addr ChipAddress, value T, newT func() T) error {
	if err := WriteRegister(ctx, c, addr, value); err != nil {
		return err
	}
	readback, err := ReadRegister(ctx, c, addr, newT)
	if err != nil {
		return err
	}
	want := value.Pack()
	for i, rb := range readback {
		if !bytes.Equal(rb.Pack(), want) {
			return fmt.Errorf("chipcmd: chip %d returned wrong value of register %#x: %x instead of %x: %w",
				i, value.RegNum(), rb.Pack(), want, hberrors.ErrHashchip)
		}
	}
	return nil
}

func hberrorsIsTimeout(err error) bool {
	return errors.Is(err, hberrors.ErrFifoTimedOut)
}
