package sensor_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braiins-s9/hashboard-core/internal/i2cbus"
	"github.com/braiins-s9/hashboard-core/internal/logx"
	"github.com/braiins-s9/hashboard-core/internal/sensor"
	_ "github.com/braiins-s9/hashboard-core/internal/sensor/tmp451"
)

// fakeTransport answers exactly one address with a fixed register
// file, otherwise reports no device present, like the board with
// exactly one sensor slot populated.
type fakeTransport struct {
	mu   sync.Mutex
	addr uint8
	regs map[uint8]uint8
	last uint8
}

func (f *fakeTransport) WriteBytes(hwAddr uint8, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if hwAddr&^1 != f.addr {
		return fmt.Errorf("no device at %#x", hwAddr)
	}
	if len(data) == 1 {
		f.last = data[0]
	}
	return nil
}

func (f *fakeTransport) ReadBytes(hwAddr uint8, n int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if hwAddr != f.addr {
		return nil, fmt.Errorf("no device at %#x", hwAddr)
	}
	if v, ok := f.regs[f.last]; ok {
		return []byte{v}, nil
	}
	return []byte{0}, nil
}

func TestProbeFindsRegisteredDriver(t *testing.T) {
	transport := &fakeTransport{addr: 0x98, regs: map[uint8]uint8{0xfe: 0x55}}
	bus := i2cbus.NewBus(transport)
	defer bus.Close()

	found, err := sensor.Probe(bus, logx.New("test"))
	require.NoError(t, err)
	require.NotNil(t, found)
}

func TestProbeNoSensorPresent(t *testing.T) {
	transport := &fakeTransport{addr: 0x84, regs: map[uint8]uint8{0xfe: 0x55}}
	bus := i2cbus.NewBus(transport)
	defer bus.Close()

	found, err := sensor.Probe(bus, logx.New("test"))
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestProbeUnrecognizedManufacturerID(t *testing.T) {
	transport := &fakeTransport{addr: 0x9c, regs: map[uint8]uint8{0xfe: 0x37}}
	bus := i2cbus.NewBus(transport)
	defer bus.Close()

	found, err := sensor.Probe(bus, logx.New("test"))
	require.NoError(t, err)
	assert.Nil(t, found)
}
