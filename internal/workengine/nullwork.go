package workengine

import "encoding/binary"

// NullJob builds the synthetic Job used for chip initialization and
// bring-up: an all-0xff previous-hash/merkle-root with the given time,
// bits and version. A bits field of 0xffffffff expands past
// bitcoin.MaxTarget, so such a Job reports IsValid false and the
// validator discards its solutions.
func NullJob(timeValue, bits, version uint32) *Job {
	var allOnes [32]byte
	for i := range allOnes {
		allOnes[i] = 0xff
	}
	return &Job{
		Version:      version,
		PreviousHash: allOnes,
		MerkleRoot:   allOnes,
		Time:         timeValue,
		MaxTime:      timeValue,
		Bits:         bits,
	}
}

// PrepareNullWork builds a single-midstate Assignment whose midstate
// state is just the little-endian encoding of id, bypassing version
// rolling entirely: used to push a uniquely identifiable, otherwise
// meaningless midstate through the chip chain during self-test.
func PrepareNullWork(id uint64) Assignment {
	job := NullJob(0, 0xffffffff, 0)

	var state [8]uint32
	var idBytes [8]byte
	binary.LittleEndian.PutUint64(idBytes[:], id)
	state[0] = binary.LittleEndian.Uint32(idBytes[0:4])
	state[1] = binary.LittleEndian.Uint32(idBytes[4:8])

	return Assignment{
		Job:       job,
		Midstates: []Midstate{{Version: 0, State: state}},
		Ntime:     job.Time,
	}
}

// PrepareOpenCoreWork builds a midstateCount-wide all-zero Assignment
// used to exercise every chip core without depending on a midstate
// derived from real header bytes. enableCore selects between a
// wide-open bits field (cores process the work) and a closed one
// (cores are held idle) mirroring the firmware's open-core bring-up
// toggle.
func PrepareOpenCoreWork(enableCore bool, midstateCount int) Assignment {
	bits := uint32(0)
	if enableCore {
		bits = 0xffffffff
	}
	job := NullJob(0, bits, 0)

	midstates := make([]Midstate, midstateCount)
	return Assignment{
		Job:       job,
		Midstates: midstates,
		Ntime:     job.Time,
	}
}
