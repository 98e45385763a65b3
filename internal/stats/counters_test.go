package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddValidRollsUpThreeLevels(t *testing.T) {
	c := NewChainCounters(2, 256)
	c.AddValid(CoreAddress{Chip: 1, Core: 5})

	assert.Equal(t, uint64(256), c.Valid)
	assert.Equal(t, uint64(256), c.Chip[1].Valid)
	assert.Equal(t, uint64(256), c.Chip[1].Core[5].Valid)
	assert.Equal(t, uint64(0), c.Chip[0].Valid)
}

func TestAddErrorRollsUpThreeLevels(t *testing.T) {
	c := NewChainCounters(1, 256)
	c.AddError(CoreAddress{Chip: 0, Core: 2})
	assert.Equal(t, uint64(1), c.Errors)
	assert.Equal(t, uint64(1), c.Chip[0].Errors)
	assert.Equal(t, uint64(1), c.Chip[0].Core[2].Errors)
}

func TestAddValidIgnoresOutOfRangeChip(t *testing.T) {
	c := NewChainCounters(1, 256)
	c.AddValid(CoreAddress{Chip: 5, Core: 0})
	assert.Equal(t, uint64(0), c.Valid)
}

func TestResetZeroesEverything(t *testing.T) {
	c := NewChainCounters(1, 256)
	c.AddValid(CoreAddress{Chip: 0, Core: 0})
	c.AddError(CoreAddress{Chip: 0, Core: 0})
	c.Reset()
	assert.Equal(t, uint64(0), c.Valid)
	assert.Equal(t, uint64(0), c.Errors)
	assert.Equal(t, uint64(0), c.Chip[0].Core[0].Valid)
}

func TestSnapshotFreezesDuration(t *testing.T) {
	c := NewChainCounters(1, 1)
	c.AddValid(CoreAddress{Chip: 0, Core: 0})
	snap := c.Snapshot()
	d1 := snap.Duration()
	d2 := snap.Duration()
	assert.Equal(t, d1, d2)
	assert.Equal(t, snap.Valid, c.Valid)
}

func TestSetChipCountGrowsAndShrinks(t *testing.T) {
	c := NewChainCounters(2, 1)
	c.SetChipCount(4)
	require.Equal(t, 4, c.ChipCount())
	c.SetChipCount(1)
	require.Equal(t, 1, c.ChipCount())
}

func TestBuildSummaryReflectsCountersAndHashrate(t *testing.T) {
	c := NewChainCounters(2, 256)
	c.AddValidUnattributed()
	c.AddErrorUnattributed()

	mean := NewWindowedTimeMean(time.Second)
	now := time.Now()
	mean.Insert(1, now)

	summary := BuildSummary(c, mean, now.Add(time.Millisecond))

	assert.Equal(t, uint64(256), summary.Valid)
	assert.Equal(t, uint64(1), summary.Errors)
	assert.Equal(t, 2, summary.ChipCount)
	assert.Greater(t, summary.HashrateHz, 0.0)
}
