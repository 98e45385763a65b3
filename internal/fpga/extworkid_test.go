package fpga

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeExtWorkID(t *testing.T) {
	assert.Equal(t, ExtWorkID{WorkID: 0x8765, MidstateIdx: 0}, DecodeExtWorkID(Midstate1, 0x8765))
	assert.Equal(t, ExtWorkID{WorkID: 0x43b2, MidstateIdx: 1}, DecodeExtWorkID(Midstate2, 0x8765))
	assert.Equal(t, ExtWorkID{WorkID: 0x21d9, MidstateIdx: 1}, DecodeExtWorkID(Midstate4, 0x8765))
}

func TestEncodeExtWorkID(t *testing.T) {
	assert.Equal(t, 0x8765, EncodeExtWorkID(Midstate1, ExtWorkID{WorkID: 0x8765, MidstateIdx: 0}))
	assert.Equal(t, 0x8765, EncodeExtWorkID(Midstate2, ExtWorkID{WorkID: 0x43b2, MidstateIdx: 1}))
	assert.Equal(t, 0x8765, EncodeExtWorkID(Midstate4, ExtWorkID{WorkID: 0x21d9, MidstateIdx: 1}))
}

func TestEncodeExtWorkIDOverflowPanics(t *testing.T) {
	assert.Panics(t, func() {
		EncodeExtWorkID(Midstate2, ExtWorkID{WorkID: 0x8765, MidstateIdx: 2})
	})
	assert.Panics(t, func() {
		EncodeExtWorkID(Midstate1, ExtWorkID{WorkID: 0x8765, MidstateIdx: 1})
	})
}

func TestWorkIDCount(t *testing.T) {
	assert.Equal(t, 0x10000, Midstate1.WorkIDCount())
	assert.Equal(t, 0x8000, Midstate2.WorkIDCount())
	assert.Equal(t, 0x4000, Midstate4.WorkIDCount())
}

func TestExtWorkIDRoundTrip(t *testing.T) {
	for _, m := range []MidstateCount{Midstate1, Midstate2, Midstate4} {
		for w := 0; w < m.WorkIDCount(); w += m.WorkIDCount() / 37 {
			for mi := 0; mi < int(m); mi++ {
				got := DecodeExtWorkID(m, EncodeExtWorkID(m, ExtWorkID{WorkID: w, MidstateIdx: mi}))
				assert.Equal(t, w, got.WorkID)
				assert.Equal(t, mi, got.MidstateIdx)
			}
		}
	}
}
