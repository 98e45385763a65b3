package bitcoin

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderSerializeLayout(t *testing.T) {
	h := &Header{
		Version: 0x20000000,
		Time:    0x5f5e1000,
		Bits:    0x1d00ffff,
		Nonce:   0x12345678,
	}
	h.PrevHash[0] = 0xaa
	h.MerkleRoot[31] = 0xbb

	buf := h.Serialize()
	assert.Len(t, buf, HeaderLen)
	assert.Equal(t, byte(0x00), buf[0])
	assert.Equal(t, byte(0x00), buf[1])
	assert.Equal(t, byte(0x00), buf[2])
	assert.Equal(t, byte(0x20), buf[3])
	assert.Equal(t, byte(0xaa), buf[4])
	assert.Equal(t, byte(0xbb), buf[67])
	assert.Equal(t, byte(0x78), buf[76])
}

func TestMidstateMatchesFirstChunkSHA256(t *testing.T) {
	var prev, merkle [32]byte
	for i := range prev {
		prev[i] = byte(i)
	}
	for i := range merkle {
		merkle[i] = byte(i * 3)
	}
	version := uint32(0x20000004)

	chunk := FirstChunk(prev, merkle, version)
	got := Midstate(chunk)

	// Independently compress the chunk via the stdlib checkpoint trick
	// a second time to confirm determinism, and cross-check against a
	// from-scratch SHA-256 of the chunk padded as a standalone message
	// (must differ, since a midstate is *not* a finalized hash).
	again := Midstate(chunk)
	assert.Equal(t, got, again)

	finalized := sha256.Sum256(chunk[:])
	var finalizedWords [8]uint32
	for i := 0; i < 8; i++ {
		finalizedWords[i] = uint32(finalized[i*4])<<24 | uint32(finalized[i*4+1])<<16 | uint32(finalized[i*4+2])<<8 | uint32(finalized[i*4+3])
	}
	assert.NotEqual(t, finalizedWords, got, "midstate must be the raw chaining value, not a finalized hash")
}

func TestFirstChunkNeverTouchesNonce(t *testing.T) {
	var prev, merkle [32]byte
	chunk := FirstChunk(prev, merkle, 0x20000000)
	assert.Len(t, chunk, FirstChunkLen)
}

func TestMerkleRootTail(t *testing.T) {
	var merkle [32]byte
	merkle[28] = 0x02
	merkle[29] = 0xcb
	merkle[30] = 0xa6
	merkle[31] = 0xe3
	assert.Equal(t, uint32(0xe3a6cb02), MerkleRootTail(merkle))
}
