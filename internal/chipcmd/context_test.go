package chipcmd

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braiins-s9/hashboard-core/internal/hberrors"
	"github.com/braiins-s9/hashboard-core/internal/logx"
)

// fakeCommandIO is a scripted CommandIO for exercising Context without
// any real FPGA hardware. Canned `replies` are only handed out by
// RecvResponse following a GetStatus SendCommand, mirroring real
// hardware where a write's post-flush RecvResponse call finds nothing
// pending unless the chip emitted actual spurious garbage.
type fakeCommandIO struct {
	sent    [][]byte
	replies [][]byte
	lastOp  byte
}

func (f *fakeCommandIO) SendCommand(frame []byte) error {
	cp := make([]byte, len(frame))
	copy(cp, frame)
	f.sent = append(f.sent, cp)
	f.lastOp = frame[0]
	return nil
}

func (f *fakeCommandIO) RecvResponse(timeout time.Duration, wordCount int) ([]byte, error) {
	if f.lastOp == opGetStatus && len(f.replies) > 0 {
		r := f.replies[0]
		f.replies = f.replies[1:]
		return r, nil
	}
	return nil, fmt.Errorf("fakeCommandIO: %w", hberrors.ErrFifoTimedOut)
}

type testReg struct {
	value byte
}

func (r *testReg) RegNum() uint8 { return 0x10 }
func (r *testReg) Pack() []byte  { return []byte{r.value} }
func (r *testReg) Unpack(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty reply")
	}
	r.value = data[0]
	return nil
}

func TestReadRegisterUnicast(t *testing.T) {
	io := &fakeCommandIO{replies: [][]byte{{0x42, 0, 0, 0, 0, 0, 0, 0}}}
	c := NewContext(io, nil, logx.New("test"))

	regs, err := ReadRegister(context.Background(), c, OneChip(3), func() *testReg { return &testReg{} })
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, byte(0x42), regs[0].value)
}

func TestReadRegisterBroadcastCountMismatch(t *testing.T) {
	io := &fakeCommandIO{replies: [][]byte{{1}, {2}}}
	c := NewContext(io, nil, logx.New("test"))
	c.SetChipCount(3)

	_, err := ReadRegister(context.Background(), c, AllChips(), func() *testReg { return &testReg{} })
	require.Error(t, err)
	assert.ErrorIs(t, err, hberrors.ErrHashchip)
}

func TestReadOneRegisterPanicsOnBroadcast(t *testing.T) {
	io := &fakeCommandIO{}
	c := NewContext(io, nil, logx.New("test"))
	assert.Panics(t, func() {
		_, _ = ReadOneRegister(context.Background(), c, AllChips(), func() *testReg { return &testReg{} })
	})
}

func TestWriteRegisterReadbackMismatch(t *testing.T) {
	io := &fakeCommandIO{replies: [][]byte{{0x99}}}
	c := NewContext(io, nil, logx.New("test"))

	err := WriteRegisterReadback(context.Background(), c, OneChip(0), &testReg{value: 0x42}, func() *testReg { return &testReg{} })
	require.Error(t, err)
	assert.ErrorIs(t, err, hberrors.ErrHashchip)
}

func TestWriteRegisterReadbackMatch(t *testing.T) {
	io := &fakeCommandIO{replies: [][]byte{{0x42}}}
	c := NewContext(io, nil, logx.New("test"))

	err := WriteRegisterReadback(context.Background(), c, OneChip(0), &testReg{value: 0x42}, func() *testReg { return &testReg{} })
	require.NoError(t, err)
}
