package hashchain

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braiins-s9/hashboard-core/internal/config"
	"github.com/braiins-s9/hashboard-core/internal/job"
	"github.com/braiins-s9/hashboard-core/internal/logx"
	"github.com/braiins-s9/hashboard-core/internal/registry"
	"github.com/braiins-s9/hashboard-core/internal/workengine"
)

type fakeJobSource struct {
	job *job.Job
	err error
}

func (f *fakeJobSource) NextJob(ctx context.Context) (*job.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.job, nil
}

type fakeSolutionSink struct {
	solutions []job.Solution
}

func (f *fakeSolutionSink) SubmitSolution(s job.Solution) {
	f.solutions = append(f.solutions, s)
}

func testChain(t *testing.T, sink SolutionSink) *Chain {
	t.Helper()
	cfg := config.Default()
	cfg.ChipCount = 1
	return New(0, nil, cfg, 1, &fakeJobSource{}, sink, logx.New("test"))
}

func TestNewChainStartsInCreatedState(t *testing.T) {
	c := testChain(t, nil)
	assert.Equal(t, "chain0", c.Name())
	assert.Equal(t, 0, int(c.Status()))
	assert.Equal(t, 1, c.Counters().ChipCount())
}

func TestHashrateHzReflectsInsertedShares(t *testing.T) {
	c := testChain(t, nil)
	now := time.Now()
	c.hashrate.Insert(1, now)
	c.hashrate.Insert(1, now.Add(time.Millisecond))

	rate := c.HashrateHz()
	assert.Greater(t, rate, 0.0)
}

// maxUint256 is a target so loose every hash clears it, used to make
// the JobValid branch deterministic without brute-forcing a nonce that
// actually satisfies a realistic difficulty.
func maxUint256() *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), 256)
	return max.Sub(max, big.NewInt(1))
}

func TestClassifyForwardsJobValidSolutionToSink(t *testing.T) {
	sink := &fakeSolutionSink{}
	c := testChain(t, sink)
	c.validator.JobTarget = maxUint256()
	c.validator.BackendTarget = maxUint256()

	assignment := workengine.PrepareNullWork(7)
	assignment.Job.Bits = 0x1d00ffff // a valid (IsValid) network target
	item := &registry.ItemSolution{
		Work: assignment,
		Solution: registry.Solution{
			Nonce:       0x12345678,
			MidstateIdx: 0,
			SolutionIdx: 0,
		},
	}

	c.classify(item, item.Solution.Nonce, item.Solution.MidstateIdx)

	require.Len(t, sink.solutions, 1)
	assert.Equal(t, uint32(0x12345678), sink.solutions[0].Backend.Nonce)
	assert.Equal(t, uint64(c.counters.AsicDifficulty), c.counters.Valid)
}

func TestClassifyDiscardsInvalidJobWithoutCrediting(t *testing.T) {
	sink := &fakeSolutionSink{}
	c := testChain(t, sink)

	assignment := workengine.PrepareNullWork(1)
	assignment.Job.Bits = 0x20ffffff // target far looser than the network maximum: invalid job

	item := &registry.ItemSolution{
		Work:     assignment,
		Solution: registry.Solution{Nonce: 1, MidstateIdx: 0, SolutionIdx: 0},
	}
	c.classify(item, 1, 0)

	assert.Empty(t, sink.solutions)
	assert.Equal(t, uint64(0), c.counters.Valid)
	assert.Equal(t, uint64(0), c.counters.Errors)
}

func TestClassifyCreditsBackendErrorForHashClearingNoTarget(t *testing.T) {
	sink := &fakeSolutionSink{}
	c := testChain(t, sink)

	assignment := workengine.PrepareNullWork(1)
	assignment.Job.Bits = 0 // expands to a zero target: IsValid still true, but no hash ever clears it

	item := &registry.ItemSolution{
		Work:     assignment,
		Solution: registry.Solution{Nonce: 1, MidstateIdx: 0, SolutionIdx: 0},
	}
	c.classify(item, 1, 0)

	assert.Empty(t, sink.solutions)
	assert.Equal(t, uint64(0), c.counters.Valid)
	assert.Equal(t, uint64(1), c.counters.Errors)
}

func TestSummaryReflectsChipCountAndCounters(t *testing.T) {
	c := testChain(t, nil)
	c.counters.AddValidUnattributed()

	summary := c.Summary()
	assert.Equal(t, 1, summary.ChipCount)
	assert.Equal(t, c.counters.Valid, summary.Valid)
}

func TestMidstateCountFPGAConversionMatchesUnderlyingValue(t *testing.T) {
	assert.Equal(t, 4, int(midstateCountFPGA(config.Midstate4)))
}

func TestBackendTargetLooserThanJobTarget(t *testing.T) {
	c := testChain(t, nil)
	assert.True(t, c.validator.BackendTarget.Cmp(c.validator.JobTarget) >= 0)
	assert.NotEqual(t, big.NewInt(0), c.validator.BackendTarget)
}
