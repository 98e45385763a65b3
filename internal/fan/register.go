package fan

import (
	"fmt"

	"github.com/braiins-s9/hashboard-core/internal/fpga"
	"github.com/braiins-s9/hashboard-core/internal/logx"
)

// NumFans is the number of tachometer channels the fan register block
// reports, one per fan header on the board's PSU/fan connector.
const NumFans = 4

// fanRPSRegStride is the byte distance between consecutive fan_rps[n]
// registers.
const fanRPSRegStride = 4

// Speed is a PWM duty-cycle percentage in [0,100].
type Speed int

// Feedback is one sample of every fan's tachometer reading, in RPM.
type Feedback struct {
	RPM [NumFans]int
}

// NumFansRunning reports how many channels read a nonzero speed.
func (f Feedback) NumFansRunning() int {
	n := 0
	for _, rpm := range f.RPM {
		if rpm > 0 {
			n++
		}
	}
	return n
}

// regBlock is the minimal register access this package needs from the
// shared fan-control UIO region; fpga.FanRegs satisfies it.
type regBlock interface {
	ReadReg32(offset int) uint32
	WriteReg32(offset int, v uint32)
}

// Control drives the board's shared fan register block: tachometer
// readback and PWM duty-cycle output, common to every hashchain on the
// board rather than per-chain like the FPGA work/command FIFOs.
type Control struct {
	regs regBlock
	log  *logx.Logger
}

// NewControl wraps an already-opened fan register block.
func NewControl(regs regBlock, log *logx.Logger) *Control {
	return &Control{regs: regs, log: log}
}

// ReadFeedback samples every fan's tachometer register, converting the
// raw revolutions-per-second count to RPM.
func (c *Control) ReadFeedback() Feedback {
	var fb Feedback
	for i := 0; i < NumFans; i++ {
		rps := c.regs.ReadReg32(fpga.RegFanRPSBase + i*fanRPSRegStride)
		fb.RPM[i] = int(rps) * 60
	}
	return fb
}

// SetPWM writes a new duty cycle to the shared PWM register. Only the
// low 8 bits of the register are honored by the FPGA; writing 100
// maps to a low but nonzero value the hardware treats as "full speed"
// in this encoding, so out-of-range values are rejected outright
// rather than silently wrapped into something that could stop the
// fans.
func (c *Control) SetPWM(pwm Speed) error {
	if pwm < 0 || pwm > 100 {
		return fmt.Errorf("fan: pwm %d out of range [0,100]", pwm)
	}
	c.regs.WriteReg32(fpga.RegFanPWM, uint32(pwm))
	return nil
}
