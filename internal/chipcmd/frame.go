package chipcmd

// Command opcodes for the chip command channel. These mirror the two
// operations every bring-up sequence needs: read a register back
// (GetStatus) and program one (SetConfig).
const (
	opGetStatus byte = 0x04
	opSetConfig byte = 0x08
)

// Register is a chip register that can be serialized onto, and parsed
// back off, the command channel.
type Register interface {
	// RegNum is the chip-side register number this type represents.
	RegNum() uint8
	// Pack serializes the register's value (not including the register
	// number or chip address, which the command frame carries
	// separately).
	Pack() []byte
	// Unpack parses a register value out of a command-reply payload.
	Unpack(data []byte) error
}

// buildCommandFrame assembles a command-channel frame: opcode, chip
// address (broadcast flag packed into the high bit of the address
// byte), register number, optional value payload, and a CRC5 trailer.
func buildCommandFrame(op byte, addr ChipAddress, regNum uint8, value []byte) []byte {
	addrByte := byte(0)
	if addr.IsBroadcast() {
		addrByte = 0x80
	} else {
		addrByte = byte(addr.Index() & 0x7f)
	}

	frame := make([]byte, 0, 3+len(value)+1)
	frame = append(frame, op, addrByte, regNum)
	frame = append(frame, value...)
	frame = append(frame, crc5(frame))
	return frame
}

// crc5 computes the 5-bit CRC (polynomial 0x05, as used by the chip
// command channel) over frame, returned right-justified in a byte.
func crc5(frame []byte) byte {
	var crc byte
	for _, b := range frame {
		for bit := 7; bit >= 0; bit-- {
			msb := (crc>>4)&1 != 0
			crc <<= 1
			if (b>>uint(bit))&1 != 0 {
				crc ^= 1
			}
			if msb {
				crc ^= 0x05
			}
			crc &= 0x1f
		}
	}
	return crc
}
