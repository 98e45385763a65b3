// Package stats implements the three-level core/chip/chain nonce and
// error counters plus the windowed time-weighted hashrate mean derived
// from them.
package stats

import "time"

// CoreAddrSpaceSize is the number of core-address slots a BM1387
// reports per chip.
const CoreAddrSpaceSize = 114

// CoreAddress identifies the chip and core a nonce or hardware error
// was attributed to.
type CoreAddress struct {
	Chip int
	Core int
}

// Core holds valid/error counts for a single chip core.
type Core struct {
	Valid  uint64
	Errors uint64
}

func (c *Core) reset() {
	c.Valid = 0
	c.Errors = 0
}

// Chip holds a chip's own totals plus its per-core breakdown.
type Chip struct {
	Core   [CoreAddrSpaceSize]Core
	Valid  uint64
	Errors uint64
}

func newChip() Chip {
	return Chip{}
}

func (c *Chip) reset() {
	c.Valid = 0
	c.Errors = 0
	for i := range c.Core {
		c.Core[i].reset()
	}
}

// ChainCounters is the chain-level nonce/error accumulator: every
// AddValid/AddError call also rolls up into the addressed chip and
// core. A uint64 valid counter comfortably covers a multi-day run at
// any realistic ASIC difficulty without needing a big.Int.
type ChainCounters struct {
	Chip           []Chip
	Valid          uint64
	Errors         uint64
	Started        time.Time
	Stopped        time.Time
	stopped        bool
	AsicDifficulty uint64
}

// NewChainCounters allocates chipCount chips' worth of counters,
// starting the clock immediately.
func NewChainCounters(chipCount int, asicDifficulty uint64) *ChainCounters {
	chips := make([]Chip, chipCount)
	for i := range chips {
		chips[i] = newChip()
	}
	return &ChainCounters{
		Chip:           chips,
		Started:        time.Now(),
		AsicDifficulty: asicDifficulty,
	}
}

// Reset zeroes every counter and restarts the elapsed-time clock.
func (c *ChainCounters) Reset() {
	c.Valid = 0
	c.Errors = 0
	for i := range c.Chip {
		c.Chip[i].reset()
	}
	c.Started = time.Now()
	c.stopped = false
	c.Stopped = time.Time{}
}

// Snapshot returns a copy of c with Stopped pinned to now, so the
// caller can compute a stable hashrate from it without the duration
// continuing to grow underneath it.
func (c *ChainCounters) Snapshot() *ChainCounters {
	cp := *c
	cp.Chip = make([]Chip, len(c.Chip))
	copy(cp.Chip, c.Chip)
	cp.Stopped = time.Now()
	cp.stopped = true
	return &cp
}

// Duration reports elapsed time since Started, up to Stopped if the
// counters have been snapshotted.
func (c *ChainCounters) Duration() time.Duration {
	if c.stopped {
		return c.Stopped.Sub(c.Started)
	}
	return time.Since(c.Started)
}

// AddValidUnattributed credits a valid nonce to the chain total only,
// with no chip/core breakdown. The FPGA solution-reply path reports a
// work id and nonce, not the originating chip, so the hashchain
// receive path uses this method. Per-core attribution goes through
// AddValid, which takes a resolved CoreAddress.
func (c *ChainCounters) AddValidUnattributed() {
	c.Valid += c.AsicDifficulty
}

// AddErrorUnattributed credits one hardware error to the chain total
// only, mirroring AddValidUnattributed.
func (c *ChainCounters) AddErrorUnattributed() {
	c.Errors++
}

// AddValid credits a valid nonce (worth AsicDifficulty shares) to the
// chain, its chip, and its core. Addresses outside the current chip
// count are ignored rather than panicking: a chip count reduction can
// leave stale addresses circulating briefly.
func (c *ChainCounters) AddValid(addr CoreAddress) {
	if addr.Chip < 0 || addr.Chip >= len(c.Chip) {
		return
	}
	c.Valid += c.AsicDifficulty
	c.Chip[addr.Chip].Valid += c.AsicDifficulty
	if addr.Core >= 0 && addr.Core < CoreAddrSpaceSize {
		c.Chip[addr.Chip].Core[addr.Core].Valid += c.AsicDifficulty
	}
}

// AddError credits one hardware error event to the chain, its chip,
// and its core.
func (c *ChainCounters) AddError(addr CoreAddress) {
	if addr.Chip < 0 || addr.Chip >= len(c.Chip) {
		return
	}
	c.Errors++
	c.Chip[addr.Chip].Errors++
	if addr.Core >= 0 && addr.Core < CoreAddrSpaceSize {
		c.Chip[addr.Chip].Core[addr.Core].Errors++
	}
}

// SetChipCount grows or shrinks the chip slice, zero-filling any newly
// added chips.
func (c *ChainCounters) SetChipCount(chipCount int) {
	if chipCount <= len(c.Chip) {
		c.Chip = c.Chip[:chipCount]
		return
	}
	grown := make([]Chip, chipCount)
	copy(grown, c.Chip)
	for i := len(c.Chip); i < chipCount; i++ {
		grown[i] = newChip()
	}
	c.Chip = grown
}

// ChipCount reports the current number of tracked chips.
func (c *ChainCounters) ChipCount() int {
	return len(c.Chip)
}

// Summary is a CGMiner-style rollup of one chain's counters plus its
// current hashrate estimate, computable on demand rather than kept as
// wire-protocol state; it gives the original summary-struct concept a
// home without implementing the CGMiner RPC protocol itself.
type Summary struct {
	Valid      uint64
	Errors     uint64
	ChipCount  int
	Uptime     time.Duration
	HashrateHz float64
}

// BuildSummary snapshots counters and combines them with a hashrate
// estimate from mean, measured as of now.
func BuildSummary(counters *ChainCounters, mean *WindowedTimeMean, now time.Time) Summary {
	sharesPerSecond := mean.Measure(now)
	return Summary{
		Valid:      counters.Valid,
		Errors:     counters.Errors,
		ChipCount:  counters.ChipCount(),
		Uptime:     counters.Duration(),
		HashrateHz: sharesPerSecond * float64(counters.AsicDifficulty) * 4294967296.0,
	}
}
