package fan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braiins-s9/hashboard-core/internal/fpga"
	"github.com/braiins-s9/hashboard-core/internal/logx"
)

type fakeRegs struct {
	regs map[int]uint32
}

func newFakeRegs() *fakeRegs { return &fakeRegs{regs: make(map[int]uint32)} }

func (f *fakeRegs) ReadReg32(offset int) uint32  { return f.regs[offset] }
func (f *fakeRegs) WriteReg32(offset int, v uint32) { f.regs[offset] = v }

func TestReadFeedbackConvertsRPSToRPM(t *testing.T) {
	regs := newFakeRegs()
	regs.WriteReg32(fpga.RegFanRPSBase+0*4, 20)
	regs.WriteReg32(fpga.RegFanRPSBase+1*4, 0)
	regs.WriteReg32(fpga.RegFanRPSBase+2*4, 35)
	regs.WriteReg32(fpga.RegFanRPSBase+3*4, 10)

	c := NewControl(regs, logx.New("test"))
	fb := c.ReadFeedback()
	assert.Equal(t, [NumFans]int{1200, 0, 2100, 600}, fb.RPM)
	assert.Equal(t, 3, fb.NumFansRunning())
}

func TestSetPWMRejectsOutOfRange(t *testing.T) {
	regs := newFakeRegs()
	c := NewControl(regs, logx.New("test"))

	require.NoError(t, c.SetPWM(100))
	assert.Error(t, c.SetPWM(101))
	assert.Error(t, c.SetPWM(-1))
}
