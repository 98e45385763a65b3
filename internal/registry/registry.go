// Package registry associates in-flight work assignments with the
// 16-bit work_id the FPGA tags solutions with, circularly allocating
// ids and retiring the oldest half of the ring on every new insert so
// a solution against a long-retired id is detectable as stale.
package registry

import (
	"github.com/braiins-s9/hashboard-core/internal/workengine"
)

// Solution is a raw, chip-reported nonce/solution-index pair, prior to
// being matched against the registry entry it belongs to.
type Solution struct {
	Nonce       uint32
	MidstateIdx int
	SolutionIdx int
}

// Item is one occupied registry slot: the assignment it was issued
// for, plus every solution already reported against it (duplicates
// and multiple valid solutions per assignment are both possible).
type Item struct {
	Work      workengine.Assignment
	solutions []Solution
}

// InsertSolutionStatus reports the outcome of associating a new
// solution with its registry item.
type InsertSolutionStatus struct {
	// Duplicate is true when this exact nonce was already recorded
	// against the item.
	Duplicate bool
	// Solution is the accepted solution (Work + Solution), present
	// whenever Duplicate is false.
	Solution *ItemSolution
}

// ItemSolution binds a raw Solution back to the Assignment it was
// mined against.
type ItemSolution struct {
	Work     workengine.Assignment
	Solution Solution
}

func (item *Item) insertSolution(s Solution) InsertSolutionStatus {
	for _, existing := range item.solutions {
		if existing.Nonce == s.Nonce {
			return InsertSolutionStatus{Duplicate: true}
		}
	}
	item.solutions = append(item.solutions, s)
	return InsertSolutionStatus{
		Solution: &ItemSolution{Work: item.Work, Solution: s},
	}
}

// WorkRegistry is a circular work_id allocator: ids are handed out
// `[0, size)` round-robin, and storing a new assignment retires
// whatever occupies the slot size/2 ids ahead, keeping at least half
// the ring free at all times so a reported solution against a
// genuinely stale id can always be recognized as such.
type WorkRegistry struct {
	size       int
	nextWorkID int
	slots      []*Item
}

// NewWorkRegistry builds a registry with size slots.
func NewWorkRegistry(size int) *WorkRegistry {
	return &WorkRegistry{size: size, slots: make([]*Item, size)}
}

func (r *WorkRegistry) allocNextWorkID() int {
	id := r.nextWorkID
	r.nextWorkID = (id + 1) % r.size
	return id
}

// StoreWork assigns a fresh work_id to work, retiring whatever
// occupied the slot size/2 ids ahead of the newly assigned one.
func (r *WorkRegistry) StoreWork(work workengine.Assignment) int {
	workID := r.allocNextWorkID()

	retireID := (workID + r.size/2) % r.size
	r.slots[retireID] = nil

	r.slots[workID] = &Item{Work: work}
	return workID
}

// FindWork looks up the item at workID, or nil if that slot is empty
// (never assigned, or already retired).
func (r *WorkRegistry) FindWork(workID int) *Item {
	if workID < 0 || workID >= r.size {
		panic("registry: work_id out of range")
	}
	return r.slots[workID]
}

// InsertSolution looks up workID and records s against it. If workID
// has no live item (stale or out of range), it reports Stale; the
// caller passing an out-of-range id gets the same treatment rather
// than a panic, since a corrupted FPGA report is exactly the case this
// guards against.
func (r *WorkRegistry) InsertSolution(workID int, s Solution) (status InsertSolutionStatus, stale bool) {
	if workID < 0 || workID >= r.size {
		return InsertSolutionStatus{}, true
	}
	item := r.slots[workID]
	if item == nil {
		return InsertSolutionStatus{}, true
	}
	return item.insertSolution(s), false
}

// Size reports the number of slots in the ring.
func (r *WorkRegistry) Size() int {
	return r.size
}
