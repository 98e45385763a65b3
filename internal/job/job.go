package job

import (
	"math/big"
	"time"

	"github.com/braiins-s9/hashboard-core/internal/bitcoin"
	"github.com/braiins-s9/hashboard-core/internal/workengine"
)

// Job is the pool-facing block template: everything workengine.Job
// needs to roll work, plus the weak-reference origin naming the client
// it came from.
type Job struct {
	Version      uint32
	VersionMask  uint32
	PreviousHash [32]byte
	MerkleRoot   [32]byte
	Time         uint32
	MaxTime      uint32
	Bits         uint32
	Origin       Handle
}

// Target expands Bits into the 256-bit network target.
func (j *Job) Target() *big.Int {
	return bitcoin.ExpandBits(j.Bits)
}

// IsValid rejects a bits field whose target exceeds the real network
// maximum (corrupt or malicious template).
func (j *Job) IsValid() bool {
	return j.Target().Cmp(bitcoin.MaxTarget) <= 0
}

// Engine builds a workengine.Job view of j suitable for NewEngine.
// j.Origin is passed through as is: Handle satisfies
// workengine.ClientHandle via its String method.
func (j *Job) Engine() *workengine.Job {
	return &workengine.Job{
		Version:      j.Version,
		VersionMask:  j.VersionMask,
		PreviousHash: j.PreviousHash,
		MerkleRoot:   j.MerkleRoot,
		Time:         j.Time,
		MaxTime:      j.MaxTime,
		Bits:         j.Bits,
		Origin:       j.Origin,
	}
}

// BackendSolution is the raw report a hashchain produces for one
// accepted nonce: which midstate and chip-reported solution slot it
// came from, and the backend (chip) difficulty target it was checked
// against on-chip.
type BackendSolution struct {
	Nonce         uint32
	MidstateIdx   int
	SolutionIdx   uint8
	BackendTarget *big.Int
}

// Solution binds a BackendSolution to the Assignment it was mined
// against, with the wall-clock time it was observed and its computed
// block-header hash.
type Solution struct {
	Work     workengine.Assignment
	Backend  BackendSolution
	Observed time.Time
	Hash     [32]byte
}
