// Package chipcmd implements the command channel used to read and
// write ASIC chip registers over the FPGA command FIFO: broadcast or
// unicast register access, write-then-readback verification, and raw
// command passthrough for chip-specific bring-up sequences.
package chipcmd

import "fmt"

// ChipAddress addresses either every chip on the chain (broadcast) or
// a single chip by its chain-relative index.
type ChipAddress struct {
	broadcast bool
	index     int
}

// AllChips returns the broadcast chip address.
func AllChips() ChipAddress {
	return ChipAddress{broadcast: true}
}

// OneChip addresses a single chip by index.
func OneChip(index int) ChipAddress {
	return ChipAddress{index: index}
}

// IsBroadcast reports whether this address targets every chip.
func (a ChipAddress) IsBroadcast() bool {
	return a.broadcast
}

// Index returns the unicast chip index. Calling it on a broadcast
// address is a programming error.
func (a ChipAddress) Index() int {
	if a.broadcast {
		panic("chipcmd: Index called on broadcast ChipAddress")
	}
	return a.index
}

func (a ChipAddress) String() string {
	if a.broadcast {
		return "all"
	}
	return fmt.Sprintf("chip[%d]", a.index)
}
