package workengine

import (
	"github.com/braiins-s9/hashboard-core/internal/bitcoin"
)

// Midstate is one SHA-256 chaining value computed from a header with a
// particular rolled version substituted in, plus the version it was
// computed from (the chip reports that version back on a solution, so
// it has to travel with the assignment).
type Midstate struct {
	Version uint32
	State   [8]uint32
}

// Assignment is one unit of work handed to a hashchain: M midstates
// sharing everything about the header except the rolled version bits.
type Assignment struct {
	Job            *Job
	Midstates      []Midstate
	Ntime          uint32
	MerkleRootTail uint32
}

// Engine rolls BIP320 version bits for a single Job, producing
// Assignments of MidstateCount midstates each until the 16-bit rolled
// subspace is exhausted.
type Engine struct {
	job           *Job
	midstateCount uint32

	baseVersion  uint32
	currVersion  uint32
	exhausted    bool
	merkleTail   uint32
}

// NewEngine builds an Engine that rolls job's version bits [28:13] in
// steps of midstateCount, clearing the BIP320 subspace from job's
// version to use as the fixed base.
func NewEngine(job *Job, midstateCount int) *Engine {
	return &Engine{
		job:           job,
		midstateCount: uint32(midstateCount),
		baseVersion:   job.Version &^ bitcoin.VersionRollMask,
		merkleTail:    bitcoin.MerkleRootTail(job.MerkleRoot),
	}
}

// IsExhausted reports whether the 16-bit rolled subspace has been
// fully consumed; the caller should request a new Job once this is
// true.
func (e *Engine) IsExhausted() bool {
	return e.exhausted
}

func (e *Engine) blockVersion(rolled uint32) uint32 {
	return e.baseVersion | ((rolled & 0xffff) << bitcoin.VersionRollShift)
}

// NextAssignment rolls the next midstateCount versions and returns the
// Assignment built from them, or ok=false once the rolled subspace is
// exhausted (a 16-bit counter can't advance by midstateCount without
// overflowing).
func (e *Engine) NextAssignment() (Assignment, bool) {
	if e.exhausted {
		return Assignment{}, false
	}

	const rolledSpace = 0x10000 // 16-bit rolled subspace, BIP320
	start := e.currVersion
	next := start + e.midstateCount
	if next > rolledSpace {
		e.exhausted = true
		return Assignment{}, false
	}
	e.currVersion = next
	if next == rolledSpace {
		e.exhausted = true
	}

	midstates := make([]Midstate, 0, e.midstateCount)
	for v := start; v < next; v++ {
		rolledVersion := e.blockVersion(v)
		chunk := bitcoin.FirstChunk(e.job.PreviousHash, e.job.MerkleRoot, rolledVersion)
		midstates = append(midstates, Midstate{
			Version: rolledVersion,
			State:   bitcoin.Midstate(chunk),
		})
	}

	return Assignment{
		Job:            e.job,
		Midstates:      midstates,
		Ntime:          e.job.Time,
		MerkleRootTail: e.merkleTail,
	}, true
}
