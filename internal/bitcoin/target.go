package bitcoin

import (
	"fmt"
	"math/big"
)

// MaxTarget is the target at minimum difficulty (difficulty 1), bits
// 0x1d00ffff, used to normalize difficulty-style comparisons.
var MaxTarget = ExpandBits(0x1d00ffff)

// ExpandBits expands a compact "nBits" encoding into a full 256-bit
// target. The compact form packs a 3-byte mantissa and a 1-byte
// exponent: target = mantissa * 256^(exponent-3). The sign bit
// (0x00800000) is never set for a valid Bitcoin target; callers that
// need to reject it should use ExpandBitsChecked.
func ExpandBits(bits uint32) *big.Int {
	exponent := int(bits >> 24)
	mantissa := int64(bits & 0x007fffff)

	target := big.NewInt(mantissa)
	shift := exponent - 3
	switch {
	case shift > 0:
		target.Lsh(target, uint(shift)*8)
	case shift < 0:
		target.Rsh(target, uint(-shift)*8)
	}
	return target
}

// ExpandBitsChecked expands bits like ExpandBits but rejects the
// negative-mantissa encoding (sign bit set) that no real network
// target ever sets.
func ExpandBitsChecked(bits uint32) (*big.Int, error) {
	if bits&0x00800000 != 0 {
		return nil, fmt.Errorf("bitcoin: bits 0x%08x has negative mantissa bit set", bits)
	}
	return ExpandBits(bits), nil
}

// CompactBits re-encodes a 256-bit target back into the compact form.
// Used only by self-test/bring-up work generators that need to round
// trip a synthetic target.
func CompactBits(target *big.Int) uint32 {
	if target.Sign() == 0 {
		return 0
	}
	b := target.Bytes()
	exponent := len(b)
	var mantissa uint32
	switch {
	case exponent <= 3:
		for _, v := range b {
			mantissa = mantissa<<8 | uint32(v)
		}
		mantissa <<= uint(3-exponent) * 8
	default:
		mantissa = uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	}
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}
	return uint32(exponent)<<24 | mantissa
}

// DifficultyToTarget converts a difficulty figure (as configured for a
// job or backend target) into its corresponding 256-bit target:
// target = MaxTarget / difficulty, the standard relationship a share's
// difficulty is defined by. A zero difficulty is treated as 1 (no
// accept-everything footgun from a misconfigured zero).
func DifficultyToTarget(difficulty uint64) *big.Int {
	if difficulty == 0 {
		difficulty = 1
	}
	return new(big.Int).Div(MaxTarget, new(big.Int).SetUint64(difficulty))
}

// HashLessOrEqual reports whether hash (little-endian, as produced by
// HashBlock) is numerically <= target. This is the network/job/backend
// solution-acceptance test.
func HashLessOrEqual(hash [32]byte, target *big.Int) bool {
	be := reverseBytes(hash)
	h := new(big.Int).SetBytes(be[:])
	return h.Cmp(target) <= 0
}

func reverseBytes(in [32]byte) [32]byte {
	var out [32]byte
	for i := range in {
		out[i] = in[31-i]
	}
	return out
}
