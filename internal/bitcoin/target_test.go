package bitcoin

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandBitsKnownDifficulty1(t *testing.T) {
	target := ExpandBits(0x1d00ffff)
	want := new(big.Int)
	want.SetString("00000000ffff0000000000000000000000000000000000000000000000000000", 16)
	assert.Equal(t, 0, target.Cmp(want))
}

func TestExpandBitsCheckedRejectsNegative(t *testing.T) {
	_, err := ExpandBitsChecked(0x1d80ffff)
	require.Error(t, err)
}

func TestCompactBitsRoundTrip(t *testing.T) {
	for _, bits := range []uint32{0x1d00ffff, 0x1a44b9f2, 0x207fffff} {
		target := ExpandBits(bits)
		got := CompactBits(target)
		assert.Equal(t, bits, got)
	}
}

func TestDifficultyToTargetDifficulty1MatchesMaxTarget(t *testing.T) {
	target := DifficultyToTarget(1)
	assert.Equal(t, 0, target.Cmp(MaxTarget))
}

func TestDifficultyToTargetHigherDifficultyIsStricter(t *testing.T) {
	low := DifficultyToTarget(1)
	high := DifficultyToTarget(1000)
	assert.True(t, high.Cmp(low) < 0)
}

func TestDifficultyToTargetZeroTreatedAsOne(t *testing.T) {
	assert.Equal(t, 0, DifficultyToTarget(0).Cmp(DifficultyToTarget(1)))
}

func TestHashLessOrEqual(t *testing.T) {
	target := ExpandBits(0x1d00ffff)

	var lowHash [32]byte // all-zero, trivially <= any positive target
	assert.True(t, HashLessOrEqual(lowHash, target))

	var highHash [32]byte
	for i := range highHash {
		highHash[i] = 0xff
	}
	assert.False(t, HashLessOrEqual(highHash, target))
}
