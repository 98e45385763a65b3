package fpga

import "github.com/braiins-s9/hashboard-core/internal/logx"

// FanRegs is the shared, board-wide fan-control register block (one
// per board, unlike Bridge which is per-hashchain). It's exported
// separately so internal/fan's Control can be built without depending
// on the chain-addressed Bridge type.
type FanRegs struct {
	mem *uioDevice
}

// OpenFanRegs maps the fan-control UIO region.
func OpenFanRegs(log *logx.Logger) (*FanRegs, error) {
	mem, err := openUioDevice(FanControlDeviceName, true, log)
	if err != nil {
		return nil, err
	}
	return &FanRegs{mem: mem}, nil
}

// Close releases the mapping.
func (f *FanRegs) Close() error {
	return f.mem.Close()
}

// ReadReg32 reads one register word at offset.
func (f *FanRegs) ReadReg32(offset int) uint32 {
	return f.mem.readReg32(offset)
}

// WriteReg32 writes one register word at offset.
func (f *FanRegs) WriteReg32(offset int, v uint32) {
	f.mem.writeReg32(offset, v)
}
