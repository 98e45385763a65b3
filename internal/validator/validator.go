// Package validator reconstructs a full block header from a work
// assignment and reported nonce, hashes it, and classifies the result
// against the network/job/backend target cascade.
package validator

import (
	"fmt"
	"math/big"

	"github.com/braiins-s9/hashboard-core/internal/bitcoin"
	"github.com/braiins-s9/hashboard-core/internal/workengine"
)

// Classification is where a solution landed in the target cascade.
type Classification int

const (
	// Discarded means the job's IsValid reported false (its bits field
	// expands past the network maximum); the solution is not hashed
	// against any target. Jobs withdrawn by the pool are not tracked
	// and are not discarded on that ground.
	Discarded Classification = iota
	// BackendError means the hash didn't even clear the chip's own
	// (loosest) difficulty target: a hardware error.
	BackendError
	// BackendValid cleared the backend target only: useful for
	// hashrate measurement, not forwarded to the pool.
	BackendValid
	// JobValid cleared the pool's job target: forwarded as a share.
	JobValid
	// NetworkValid cleared the full network target: a block.
	NetworkValid
)

func (c Classification) String() string {
	switch c {
	case Discarded:
		return "discarded"
	case BackendError:
		return "backend_error"
	case BackendValid:
		return "backend_valid"
	case JobValid:
		return "job_valid"
	case NetworkValid:
		return "network_valid"
	default:
		return "unknown"
	}
}

// Result is the outcome of validating one reported solution.
type Result struct {
	Classification Classification
	Hash           [32]byte
}

// Validator holds the target cascade for one assignment's solutions:
// network target derives from the job's bits field, job target comes
// from the pool's requested difficulty, backend target comes from the
// chip's configured difficulty. Callers must maintain
// networkTarget >= jobTarget >= backendTarget; Validate doesn't
// re-verify that invariant on every call.
type Validator struct {
	JobTarget     *big.Int
	BackendTarget *big.Int
}

// New builds a Validator from a pool-assigned job target and a
// backend (chip) target.
func New(jobTarget, backendTarget *big.Int) *Validator {
	return &Validator{JobTarget: jobTarget, BackendTarget: backendTarget}
}

// Validate reconstructs the block header for midstate midstateIdx of
// assignment with the reported nonce, hashes it, and classifies the
// result. If assignment.Job's IsValid returns false (its bits field
// expands past the network maximum), the solution is discarded
// without being hashed at all. There is no check for a job the pool
// has since withdrawn: such a solution is hashed and classified.
func (v *Validator) Validate(assignment workengine.Assignment, midstateIdx int, nonce uint32) (Result, error) {
	if !assignment.Job.IsValid() {
		return Result{Classification: Discarded}, nil
	}
	if midstateIdx < 0 || midstateIdx >= len(assignment.Midstates) {
		return Result{}, fmt.Errorf("validator: midstate index %d out of range (have %d)", midstateIdx, len(assignment.Midstates))
	}

	midstate := assignment.Midstates[midstateIdx]
	header := &bitcoin.Header{
		Version:    midstate.Version,
		PrevHash:   assignment.Job.PreviousHash,
		MerkleRoot: assignment.Job.MerkleRoot,
		Time:       assignment.Ntime,
		Bits:       assignment.Job.Bits,
		Nonce:      nonce,
	}
	hash := bitcoin.HashBlock(header)

	networkTarget := assignment.Job.Target()

	result := Result{Hash: hash}
	switch {
	case bitcoin.HashLessOrEqual(hash, networkTarget):
		result.Classification = NetworkValid
	case bitcoin.HashLessOrEqual(hash, v.JobTarget):
		result.Classification = JobValid
	case bitcoin.HashLessOrEqual(hash, v.BackendTarget):
		result.Classification = BackendValid
	default:
		result.Classification = BackendError
	}
	return result, nil
}
