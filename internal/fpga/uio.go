package fpga

import (
	"encoding/binary"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/braiins-s9/hashboard-core/internal/hberrors"
	"github.com/braiins-s9/hashboard-core/internal/logx"
)

// uioSysfsRoot is where the kernel publishes UIO devices.
const uioSysfsRoot = "/dev"

// uioRegionSize is the size of the mapped register block for one
// hashchain (a single 4 KiB page is ample for the register layout in
// regs.go).
const uioRegionSize = 4096

// uioDevice wraps one /dev/uioN character device: an *os.File used for
// interrupt wait (read blocks until an IRQ, following kernel_device.go's
// Read+SetReadDeadline pattern) and an mmap'd register region reached
// through the same file descriptor.
type uioDevice struct {
	name string
	file *os.File
	mem  []byte
	log  *logx.Logger
}

// openUioDevice opens a named UIO device (see UioDeviceName). When
// mapMem is true the device's register region is mmap'd; IRQ-only
// devices (work-rx/work-tx/cmd-rx notification channels, which carry
// no addressable register block of their own) pass false.
func openUioDevice(name string, mapMem bool, log *logx.Logger) (*uioDevice, error) {
	path := uioSysfsRoot + "/" + name
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("fpga: open uio device %s: %w", name, errWrap(hberrors.ErrUioDevice, err))
	}

	dev := &uioDevice{name: name, file: file, log: log}
	if mapMem {
		mem, err := syscall.Mmap(int(file.Fd()), 0, uioRegionSize, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("fpga: mmap uio device %s: %w", name, errWrap(hberrors.ErrUio, err))
		}
		dev.mem = mem
		log.Printf("opened uio device %s, mapped %d bytes", name, uioRegionSize)
	} else {
		log.Printf("opened uio device %s (irq-only)", name)
	}

	return dev, nil
}

func (d *uioDevice) Close() error {
	if d.mem != nil {
		syscall.Munmap(d.mem)
		d.mem = nil
	}
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}

func (d *uioDevice) readReg32(offset int) uint32 {
	return binary.LittleEndian.Uint32(d.mem[offset : offset+4])
}

func (d *uioDevice) writeReg32(offset int, v uint32) {
	binary.LittleEndian.PutUint32(d.mem[offset:offset+4], v)
}

// waitIRQ blocks until the next UIO interrupt notification or timeout.
// UIO devices report each interrupt as a 4-byte interrupt count on a
// read(); as with /dev/bitmain-asic, not every kernel UIO
// implementation honors a read deadline on the character device, so a
// failure to set one is logged and treated as non-fatal rather than
// aborting the wait.
func (d *uioDevice) waitIRQ(timeout time.Duration) error {
	if err := d.file.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		d.log.Warnf("cannot set read deadline on uio device %s (continuing): %v", d.name, err)
	}

	var count [4]byte
	_, err := d.file.Read(count[:])
	if err != nil {
		if os.IsTimeout(err) {
			return fmt.Errorf("fpga: wait irq on %s: %w", d.name, hberrors.ErrFifoTimedOut)
		}
		return fmt.Errorf("fpga: wait irq on %s: %w", d.name, errWrap(hberrors.ErrUio, err))
	}
	return nil
}

// ackIRQ re-enables interrupt delivery after a UIO read, per the UIO
// driver protocol (write a 32-bit 1 to the device).
func (d *uioDevice) ackIRQ() error {
	var enable [4]byte
	binary.LittleEndian.PutUint32(enable[:], 1)
	if _, err := d.file.Write(enable[:]); err != nil {
		return fmt.Errorf("fpga: ack irq on %s: %w", d.name, errWrap(hberrors.ErrUio, err))
	}
	return nil
}

func errWrap(kind, cause error) error {
	return fmt.Errorf("%w: %v", kind, cause)
}
