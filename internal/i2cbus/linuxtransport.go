package i2cbus

import (
	"fmt"
	"os"
	"syscall"

	"github.com/braiins-s9/hashboard-core/internal/hberrors"
)

// i2cSlaveIoctl is Linux's I2C_SLAVE ioctl request number (linux/i2c-dev.h),
// setting the 7-bit slave address the next read/write targets.
const i2cSlaveIoctl = 0x0703

// LinuxTransport drives a real /dev/i2c-N character device: an
// I2C_SLAVE ioctl to address the target chip followed by a plain
// read/write syscall, mirroring async_i2c's direct ioctl/read/write use
// of the kernel i2c-dev interface.
type LinuxTransport struct {
	file *os.File
}

// OpenLinuxTransport opens the numbered I2C bus device, e.g. busNum=1
// for /dev/i2c-1.
func OpenLinuxTransport(busNum int) (*LinuxTransport, error) {
	path := fmt.Sprintf("/dev/i2c-%d", busNum)
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("i2cbus: open %s: %w", path, wrapI2c(err))
	}
	return &LinuxTransport{file: file}, nil
}

// Close releases the bus device.
func (t *LinuxTransport) Close() error {
	return t.file.Close()
}

func (t *LinuxTransport) setSlave(hwAddr uint8) error {
	sevenBit := uintptr(hwAddr >> 1)
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, t.file.Fd(), i2cSlaveIoctl, sevenBit)
	if errno != 0 {
		return fmt.Errorf("i2cbus: set slave address %#02x: %w", hwAddr, wrapI2c(errno))
	}
	return nil
}

// ReadBytes addresses hwAddr and reads n raw bytes.
func (t *LinuxTransport) ReadBytes(hwAddr uint8, n int) ([]byte, error) {
	if err := t.setSlave(hwAddr); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	read, err := t.file.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("i2cbus: read %#02x: %w", hwAddr, wrapI2c(err))
	}
	if read != n {
		return nil, fmt.Errorf("i2cbus: read %#02x: got %d of %d bytes: %w", hwAddr, read, n, hberrors.ErrI2c)
	}
	return buf, nil
}

// WriteBytes addresses hwAddr and writes data as a single raw
// transaction.
func (t *LinuxTransport) WriteBytes(hwAddr uint8, data []byte) error {
	if err := t.setSlave(hwAddr); err != nil {
		return err
	}
	written, err := t.file.Write(data)
	if err != nil {
		return fmt.Errorf("i2cbus: write %#02x: %w", hwAddr, wrapI2c(err))
	}
	if written != len(data) {
		return fmt.Errorf("i2cbus: write %#02x: wrote %d of %d bytes: %w", hwAddr, written, len(data), hberrors.ErrI2c)
	}
	return nil
}
