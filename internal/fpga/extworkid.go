package fpga

// MidstateCount is the number of midstates (BIP320 rolled header
// versions) an Assignment carries to the FPGA at once. Only 1, 2, or 4
// are legal: the FPGA IP core allocates that many low bits of the
// 16-bit ext-work-id word to the midstate index.
type MidstateCount int

const (
	Midstate1 MidstateCount = 1
	Midstate2 MidstateCount = 2
	Midstate4 MidstateCount = 4
)

// extWorkIDSpace is the full 16-bit range the FPGA core's work-id/
// midstate-idx word is packed into.
const extWorkIDSpace = 0x10000

// Bits returns the number of low bits of the ext-work-id word reserved
// for the midstate index: 0, 1, or 2 for M = 1, 2, 4.
func (m MidstateCount) Bits() uint {
	switch m {
	case Midstate1:
		return 0
	case Midstate2:
		return 1
	case Midstate4:
		return 2
	default:
		panic("fpga: invalid midstate count")
	}
}

// Mask returns the bitmask selecting the midstate-idx field.
func (m MidstateCount) Mask() int {
	return (1 << m.Bits()) - 1
}

// WorkIDCount returns how many distinct work_id values fit in the
// remaining high bits of the 16-bit ext-work-id word once Bits() low
// bits are reserved for the midstate index.
func (m MidstateCount) WorkIDCount() int {
	return extWorkIDSpace >> m.Bits()
}

// ExtWorkID addresses a single work midstate inside the FPGA core: a
// (work_id, midstate_idx) pair packed into one 16-bit wire word.
type ExtWorkID struct {
	WorkID      int
	MidstateIdx int
}

// DecodeExtWorkID unpacks a 16-bit FPGA-core word into its ExtWorkID.
// extID must be a legal 16-bit value; a wider value is a programming
// error (the FPGA never produces one) and panics, mirroring
// `assert!(ext_id < EXT_WORK_ID_COUNT)`.
func DecodeExtWorkID(m MidstateCount, extID int) ExtWorkID {
	if extID < 0 || extID >= extWorkIDSpace {
		panic("fpga: ext-work-id out of 16-bit range")
	}
	return ExtWorkID{
		WorkID:      extID >> m.Bits(),
		MidstateIdx: extID & m.Mask(),
	}
}

// EncodeExtWorkID packs an ExtWorkID into its 16-bit FPGA-core word.
// Both fields must be in range for m: an out-of-range work_id or
// midstate_idx is a programming error and panics, mirroring the
// Rust implementation's `assert!` guards.
func EncodeExtWorkID(m MidstateCount, id ExtWorkID) int {
	if id.WorkID < 0 || id.WorkID >= m.WorkIDCount() {
		panic("fpga: ext-work-id work_id overflows encodable range")
	}
	if id.MidstateIdx < 0 || id.MidstateIdx >= int(m) {
		panic("fpga: ext-work-id midstate_idx overflows midstate count")
	}
	return (id.WorkID << m.Bits()) | id.MidstateIdx
}
