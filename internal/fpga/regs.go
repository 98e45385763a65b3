// Package fpga models the memory-mapped register block and FIFO
// protocol between the Linux SoC and the FPGA that fans work out to
// the ASIC chip chain, plus the ext-work-id codec used to pack a
// work/midstate pair into the FPGA's 16-bit tag field.
package fpga

import "strconv"

// Register byte offsets within the 4 KiB mapped region per hashchain,
// following the teacher's ioctl.go/kernel_device.go convention of
// naming every magic offset instead of leaving them inline.
const (
	RegWorkTxFifo = 0x00
	RegWorkRxFifo = 0x04
	RegCmdTxFifo  = 0x08
	RegCmdRxFifo  = 0x0c
	RegStatReg    = 0x10
	RegWorkTime   = 0x14
	RegBaudReg    = 0x18
	RegCtrlReg    = 0x1c
	RegFanRPSBase = 0x20 // fan_rps[n], 4 bytes each
	RegFanPWM     = 0x30
)

// StatReg bit positions.
const (
	StatCmdTxFull     = 1 << 0
	StatCmdRxEmpty    = 1 << 1
	StatWorkRxEmpty   = 1 << 2
	StatIrqPendWorkTx = 1 << 3
)

// CtrlReg field: midstate_cnt occupies bits [1:0], encoding M ∈
// {1,2,4} as {0,1,2} (log2).
const (
	CtrlMidstateCntShift = 0
	CtrlMidstateCntMask  = 0x3
)

// UioDeviceName returns the sysfs/devfs name for one of a hashchain's
// UIO regions. kind is one of "mem", "work-rx", "work-tx", "cmd-rx".
func UioDeviceName(chainIdx int, kind string) string {
	return "chain" + strconv.Itoa(chainIdx) + "-" + kind
}

// FanControlDeviceName is the UIO device backing the shared fan
// register block (one per board, not per chain).
const FanControlDeviceName = "fan-control"
