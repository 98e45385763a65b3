// Package bitcoin implements the block-header layout, BIP320 version
// rolling substitution, and SHA-256(d) primitives the mining pipeline
// needs. It deliberately implements only what the core touches: no
// script, transaction, or merkle-tree construction.
package bitcoin

import (
	"crypto/sha256"
	"encoding"
	"encoding/binary"
)

// HeaderLen is the size in bytes of a serialized Bitcoin block header.
const HeaderLen = 80

// FirstChunkLen is the size of the first SHA-256 message chunk absorbed
// into a header's midstate (everything up to, but excluding, the nonce
// and the tail of the merkle root).
const FirstChunkLen = 64

// VersionRollMask covers header version bits [28:13], the 16-bit
// BIP320 rolling subspace reserved for ASIC-boost.
const VersionRollMask uint32 = 0x1fffe000

// VersionRollShift is the bit position of the low end of the rolling
// subspace.
const VersionRollShift = 13

// Header is a Bitcoin block header in host-native fields. Serialize
// produces the canonical 80-byte little-endian wire form.
type Header struct {
	Version    uint32
	PrevHash   [32]byte
	MerkleRoot [32]byte
	Time       uint32
	Bits       uint32
	Nonce      uint32
}

// Serialize writes the canonical 80-byte header.
func (h *Header) Serialize() [HeaderLen]byte {
	var buf [HeaderLen]byte
	binary.LittleEndian.PutUint32(buf[0:4], h.Version)
	copy(buf[4:36], h.PrevHash[:])
	copy(buf[36:68], h.MerkleRoot[:])
	binary.LittleEndian.PutUint32(buf[68:72], h.Time)
	binary.LittleEndian.PutUint32(buf[72:76], h.Bits)
	binary.LittleEndian.PutUint32(buf[76:80], h.Nonce)
	return buf
}

// FirstChunk returns the first 64-byte SHA-256 message chunk of the
// header with version substituted by rolledVersion, ready to seed a
// midstate computation. It never touches the nonce (bytes 76-79), which
// lives in the header's second, un-midstated chunk.
func FirstChunk(prevHash, merkleRoot [32]byte, rolledVersion uint32) [FirstChunkLen]byte {
	var buf [FirstChunkLen]byte
	binary.LittleEndian.PutUint32(buf[0:4], rolledVersion)
	copy(buf[4:36], prevHash[:])
	copy(buf[36:64], merkleRoot[:28])
	return buf
}

// MerkleRootTail returns the last 4 bytes of the merkle root, which are
// absorbed into the header's second SHA-256 chunk alongside time/bits/nonce.
func MerkleRootTail(merkleRoot [32]byte) uint32 {
	return binary.LittleEndian.Uint32(merkleRoot[28:32])
}

// Midstate returns the SHA-256 chaining value after absorbing chunk,
// expressed as eight big-endian 32-bit words (the internal SHA-256
// state, not further processed).
func Midstate(chunk [FirstChunkLen]byte) [8]uint32 {
	return compressSingleChunk(chunk)
}

// compressSingleChunk runs the SHA-256 compression function once over a
// full 64-byte chunk starting from the standard IV and returns the raw
// chaining value, with no length padding applied.
//
// crypto/sha256's digest compresses a block as soon as a full 64 bytes
// have been written, well before Sum finalizes anything. Its exported
// checkpoint format (digest implements encoding.BinaryMarshaler) hands
// back that intermediate state directly, so we drive the block
// function through the public API instead of vendoring it: write
// exactly one block, then peel the chaining value out of the
// marshaled checkpoint (magic(4) || h[8]uint32 || pending-buffer(64) ||
// length(8)).
func compressSingleChunk(chunk [64]byte) [8]uint32 {
	h := sha256.New()
	h.Write(chunk[:])
	state, err := h.(encoding.BinaryMarshaler).MarshalBinary()
	if err != nil {
		panic("bitcoin: sha256 checkpoint marshal: " + err.Error())
	}
	var out [8]uint32
	const magicLen = 4
	for i := 0; i < 8; i++ {
		off := magicLen + i*4
		out[i] = binary.BigEndian.Uint32(state[off : off+4])
	}
	return out
}

// HashBlock computes SHA256d (double SHA-256) over a fully assembled
// 80-byte header, returning the hash in the byte order it is compared
// against targets (little-endian, as Bitcoin displays/compares hashes).
func HashBlock(h *Header) [32]byte {
	ser := h.Serialize()
	first := sha256.Sum256(ser[:])
	second := sha256.Sum256(first[:])
	return second
}
