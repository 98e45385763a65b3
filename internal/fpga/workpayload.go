package fpga

import "encoding/binary"

// WorkPayloadLen is the size of one Icarus-compatible work payload, as
// sent down the FPGA work-tx FIFO for a single midstate.
const WorkPayloadLen = 64

// WorkPayload is the on-wire, per-midstate unit the FPGA core expects
// on its work-tx FIFO. Check/Data/Cmd/Prefix are protocol framing
// bytes carried over unchanged from the Icarus wire format; ID is the
// chip-facing 7-bit work tag (the FPGA extends it to the full 16-bit
// ext-work-id on the way back).
type WorkPayload struct {
	Midstate       [8]uint32
	Check          byte
	Data           byte
	Cmd            byte
	Prefix         byte
	ID             byte
	Bits           uint32
	Time           uint32
	MerkleRootTail uint32
}

// Serialize writes the 64-byte little-endian Icarus-compatible work
// payload: midstate words in reverse order, four framing bytes, 15
// unused bytes, the work id, then bits/time/merkle_root_tail.
func (w *WorkPayload) Serialize() [WorkPayloadLen]byte {
	var buf [WorkPayloadLen]byte

	for i := 0; i < 8; i++ {
		word := w.Midstate[7-i]
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], word)
	}

	buf[32] = w.Check
	buf[33] = w.Data
	buf[34] = w.Cmd
	buf[35] = w.Prefix
	// buf[36:51] are the 15 unused bytes, left zero.
	buf[51] = w.ID

	binary.LittleEndian.PutUint32(buf[52:56], w.Bits)
	binary.LittleEndian.PutUint32(buf[56:60], w.Time)
	binary.LittleEndian.PutUint32(buf[60:64], w.MerkleRootTail)

	return buf
}

// SolutionReply is the second 32-bit word the FPGA produces on a
// found-nonce event on the work-rx FIFO: solution_idx in the low byte,
// ext_work_id in the next 16 bits.
type SolutionReply struct {
	SolutionIdx uint8
	ExtWorkID   uint16
}

// DecodeSolutionReply unpacks the FPGA's little-endian second status
// word: bits [7:0] = solution_idx, bits [23:8] = ext_work_id.
func DecodeSolutionReply(word uint32) SolutionReply {
	return SolutionReply{
		SolutionIdx: uint8(word & 0xff),
		ExtWorkID:   uint16((word >> 8) & 0xffff),
	}
}
