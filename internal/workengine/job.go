// Package workengine turns a Job into a stream of Assignments, rolling
// the BIP320 version subspace through its full 16-bit range before
// reporting exhaustion.
package workengine

import (
	"math/big"

	"github.com/braiins-s9/hashboard-core/internal/bitcoin"
)

// ClientHandle is a weak reference to whatever submitted a Job, kept
// opaque here so this package doesn't depend on the pool-protocol
// client implementation. job.Job embeds a concrete handle type; this
// package only needs the job fields it rolls work from.
type ClientHandle interface {
	String() string
}

// Job is the block-template data a work engine rolls versions over.
// It's a narrower view than job.Job: just the header fields needed to
// compute midstates plus IsValid, so this package has no import-cycle
// dependency on internal/job.
type Job struct {
	Version     uint32
	VersionMask uint32
	PreviousHash [32]byte
	MerkleRoot   [32]byte
	Time         uint32
	MaxTime      uint32
	Bits         uint32
	Origin       ClientHandle
}

// Target expands Bits into the 256-bit network target.
func (j *Job) Target() *big.Int {
	return bitcoin.ExpandBits(j.Bits)
}

// IsValid reports whether the job's target is at least as strict as
// the maximum allowed network target (rejects a corrupt or malicious
// bits field before it's ever rolled into work).
func (j *Job) IsValid() bool {
	return j.Target().Cmp(bitcoin.MaxTarget) <= 0
}
