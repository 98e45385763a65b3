package validator

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braiins-s9/hashboard-core/internal/workengine"
)

func testAssignment(bits uint32) workengine.Assignment {
	job := &workengine.Job{
		PreviousHash: [32]byte{1, 2, 3},
		MerkleRoot:   [32]byte{4, 5, 6},
		Time:         0x5cb93c94,
		Bits:         bits,
	}
	return workengine.Assignment{
		Job:       job,
		Midstates: []workengine.Midstate{{Version: 0x20000000}},
		Ntime:     job.Time,
	}
}

func maxUint256() *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), 256)
	return max.Sub(max, big.NewInt(1))
}

func TestValidateDiscardsInvalidJob(t *testing.T) {
	// exponent 0x20 pushes the target far past the real network max.
	a := testAssignment(0x20123456)
	v := New(maxUint256(), maxUint256())

	result, err := v.Validate(a, 0, 0xdeadbeef)
	require.NoError(t, err)
	assert.Equal(t, Discarded, result.Classification)
}

func TestValidateLooseJobTargetAcceptsAnyHash(t *testing.T) {
	a := testAssignment(0x1d00ffff) // valid job, real difficulty-1 network target
	v := New(maxUint256(), maxUint256())

	result, err := v.Validate(a, 0, 0xdeadbeef)
	require.NoError(t, err)
	assert.Contains(t, []Classification{NetworkValid, JobValid}, result.Classification)
}

func TestValidateZeroTargetsRejectAnyRealisticHash(t *testing.T) {
	a := testAssignment(0x1d00ffff)
	v := New(big.NewInt(0), big.NewInt(0))

	result, err := v.Validate(a, 0, 0xdeadbeef)
	require.NoError(t, err)
	assert.Equal(t, BackendError, result.Classification)
}

func TestValidateRejectsMidstateIndexOutOfRange(t *testing.T) {
	a := testAssignment(0x1d00ffff)
	v := New(maxUint256(), maxUint256())

	_, err := v.Validate(a, 5, 0)
	assert.Error(t, err)
}

func TestClassificationString(t *testing.T) {
	assert.Equal(t, "network_valid", NetworkValid.String())
	assert.Equal(t, "discarded", Discarded.String())
}
