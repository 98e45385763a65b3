package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braiins-s9/hashboard-core/internal/workengine"
)

func nullAssignment(id uint64) workengine.Assignment {
	return workengine.PrepareNullWork(id)
}

func TestStoreWorkAssignsSequentialIDs(t *testing.T) {
	r := NewWorkRegistry(4)
	w1 := nullAssignment(0)
	w2 := nullAssignment(1)

	assert.Equal(t, 0, r.StoreWork(w1))
	assert.Equal(t, 1, r.StoreWork(w2))
	assert.NotNil(t, r.FindWork(0))
	assert.NotNil(t, r.FindWork(1))
	assert.Nil(t, r.FindWork(2))
}

func TestStoreWorkRetiresOldestHalf(t *testing.T) {
	const size = 8
	const numItems = size*2 + size/2 + 1
	r := NewWorkRegistry(size)

	for i := 0; i < numItems; i++ {
		id := r.StoreWork(nullAssignment(uint64(i)))
		require.Equal(t, i%size, id)
	}

	used := 0
	for i := 0; i < size; i++ {
		if r.FindWork(i) != nil {
			used++
		}
	}
	assert.Equal(t, size/2, used)

	for i := numItems - size/2; i < numItems; i++ {
		assert.NotNil(t, r.FindWork(i%size))
	}
}

func TestWorkIDWrapsAround(t *testing.T) {
	r := NewWorkRegistry(4)
	w := nullAssignment(0)
	assert.Equal(t, 0, r.StoreWork(w))
	assert.Equal(t, 1, r.StoreWork(w))
	assert.Equal(t, 2, r.StoreWork(w))
	assert.Equal(t, 3, r.StoreWork(w))
	assert.Equal(t, 0, r.StoreWork(w))
}

func TestInsertSolutionDetectsDuplicate(t *testing.T) {
	r := NewWorkRegistry(4)
	id := r.StoreWork(nullAssignment(0))

	status, stale := r.InsertSolution(id, Solution{Nonce: 0x1234})
	require.False(t, stale)
	require.NotNil(t, status.Solution)
	assert.False(t, status.Duplicate)

	status2, stale2 := r.InsertSolution(id, Solution{Nonce: 0x1234})
	require.False(t, stale2)
	assert.True(t, status2.Duplicate)
}

func TestInsertSolutionOnRetiredSlotIsStale(t *testing.T) {
	r := NewWorkRegistry(4)
	id := r.StoreWork(nullAssignment(0))
	// Two more stores retire id (4/2=2 ids ahead).
	r.StoreWork(nullAssignment(1))
	r.StoreWork(nullAssignment(2))

	_, stale := r.InsertSolution(id, Solution{Nonce: 1})
	assert.True(t, stale)
}

func TestInsertSolutionOutOfRangeIsStale(t *testing.T) {
	r := NewWorkRegistry(4)
	_, stale := r.InsertSolution(99, Solution{})
	assert.True(t, stale)
}
