package fpga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/braiins-s9/hashboard-core/internal/hberrors"
	"github.com/braiins-s9/hashboard-core/internal/logx"
)

// defaultIRQTimeout bounds each interrupt wait in WaitForWorkTxRoom
// (which then waits again) and caps the wait in RecvSolution before it
// reports a timeout. SendWork does not wait; RecvResponse takes its
// timeout from the caller.
const defaultIRQTimeout = 500 * time.Millisecond

// Bridge is the FPGA FIFO/MMIO bridge for one hashchain: it owns the
// register-block mapping plus the three interrupt-notification
// channels (work-tx room, work-rx solution, cmd-rx reply).
type Bridge struct {
	chainIdx int
	mem      *uioDevice
	workRx   *uioDevice
	workTx   *uioDevice
	cmdRx    *uioDevice
	log      *logx.Logger
}

// OpenBridge opens and maps the four UIO devices for hashchain
// chainIdx, following the naming scheme chain{idx}-{mem|work-rx|work-tx|cmd-rx}.
func OpenBridge(chainIdx int, log *logx.Logger) (*Bridge, error) {
	mem, err := openUioDevice(UioDeviceName(chainIdx, "mem"), true, log)
	if err != nil {
		return nil, err
	}
	workRx, err := openUioDevice(UioDeviceName(chainIdx, "work-rx"), false, log)
	if err != nil {
		mem.Close()
		return nil, err
	}
	workTx, err := openUioDevice(UioDeviceName(chainIdx, "work-tx"), false, log)
	if err != nil {
		mem.Close()
		workRx.Close()
		return nil, err
	}
	cmdRx, err := openUioDevice(UioDeviceName(chainIdx, "cmd-rx"), false, log)
	if err != nil {
		mem.Close()
		workRx.Close()
		workTx.Close()
		return nil, err
	}

	return &Bridge{chainIdx: chainIdx, mem: mem, workRx: workRx, workTx: workTx, cmdRx: cmdRx, log: log}, nil
}

// Close releases all four UIO mappings.
func (b *Bridge) Close() error {
	var firstErr error
	for _, d := range []*uioDevice{b.mem, b.workRx, b.workTx, b.cmdRx} {
		if err := d.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// statReg reads the current status register.
func (b *Bridge) statReg() uint32 {
	return b.mem.readReg32(RegStatReg)
}

// WaitForWorkTxRoom blocks until the FPGA reports room in the work-tx
// FIFO or ctx is done, mirroring async_wait_for_work_tx_room from the
// original firmware's work-sender loop.
func (b *Bridge) WaitForWorkTxRoom(ctx context.Context) error {
	for {
		if b.statReg()&StatIrqPendWorkTx != 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("fpga: wait for work tx room: %w", ctx.Err())
		default:
		}
		if err := b.workTx.waitIRQ(defaultIRQTimeout); err != nil {
			if isTimedOut(err) {
				continue
			}
			return err
		}
		if err := b.workTx.ackIRQ(); err != nil {
			return err
		}
	}
}

// SendWork pushes one midstate's 64-byte work payload into the
// work-tx FIFO register.
func (b *Bridge) SendWork(payload *WorkPayload) error {
	ser := payload.Serialize()
	for i := 0; i < len(ser); i += 4 {
		word := uint32(ser[i]) | uint32(ser[i+1])<<8 | uint32(ser[i+2])<<16 | uint32(ser[i+3])<<24
		b.mem.writeReg32(RegWorkTxFifo, word)
	}
	return nil
}

// RecvSolution blocks for a found-nonce interrupt and returns the
// decoded nonce plus its solution-reply metadata, or an error wrapping
// hberrors.ErrFifoTimedOut if none arrives within defaultIRQTimeout or
// the deadline carried by ctx, whichever is sooner.
func (b *Bridge) RecvSolution(ctx context.Context) (nonce uint32, reply SolutionReply, err error) {
	deadline, hasDeadline := ctx.Deadline()
	timeout := defaultIRQTimeout
	if hasDeadline {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}

	if err := b.workRx.waitIRQ(timeout); err != nil {
		return 0, SolutionReply{}, err
	}
	nonce = b.mem.readReg32(RegWorkRxFifo)
	second := b.mem.readReg32(RegWorkRxFifo)
	if err := b.workRx.ackIRQ(); err != nil {
		return 0, SolutionReply{}, err
	}
	return nonce, DecodeSolutionReply(second), nil
}

// SendCommand writes a raw command-channel frame into the cmd-tx FIFO
// register, one 32-bit word at a time.
func (b *Bridge) SendCommand(frame []byte) error {
	if len(frame)%4 != 0 {
		return fmt.Errorf("fpga: command frame length %d is not word-aligned", len(frame))
	}
	for i := 0; i < len(frame); i += 4 {
		word := uint32(frame[i]) | uint32(frame[i+1])<<8 | uint32(frame[i+2])<<16 | uint32(frame[i+3])<<24
		b.mem.writeReg32(RegCmdTxFifo, word)
	}
	return nil
}

// RecvResponse blocks for a command-reply interrupt and returns the
// raw reply frame (wordCount 32-bit words), or a timeout error.
func (b *Bridge) RecvResponse(timeout time.Duration, wordCount int) ([]byte, error) {
	if err := b.cmdRx.waitIRQ(timeout); err != nil {
		return nil, err
	}
	frame := make([]byte, wordCount*4)
	for i := 0; i < wordCount; i++ {
		word := b.mem.readReg32(RegCmdRxFifo)
		frame[i*4] = byte(word)
		frame[i*4+1] = byte(word >> 8)
		frame[i*4+2] = byte(word >> 16)
		frame[i*4+3] = byte(word >> 24)
	}
	if err := b.cmdRx.ackIRQ(); err != nil {
		return nil, err
	}
	return frame, nil
}

// SetMidstateCount programs ctrl_reg's midstate_cnt field.
func (b *Bridge) SetMidstateCount(m MidstateCount) {
	log2 := map[MidstateCount]uint32{Midstate1: 0, Midstate2: 1, Midstate4: 2}[m]
	ctrl := b.mem.readReg32(RegCtrlReg)
	ctrl &^= CtrlMidstateCntMask << CtrlMidstateCntShift
	ctrl |= (log2 & CtrlMidstateCntMask) << CtrlMidstateCntShift
	b.mem.writeReg32(RegCtrlReg, ctrl)
}

// SetWorkTime programs the work_time register (per-job FPGA deadline
// in FPGA clock ticks, computed by the caller from chip count/frequency).
func (b *Bridge) SetWorkTime(ticks uint32) {
	b.mem.writeReg32(RegWorkTime, ticks)
}

func isTimedOut(err error) bool {
	return errors.Is(err, hberrors.ErrFifoTimedOut)
}
