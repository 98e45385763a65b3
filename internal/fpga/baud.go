package fpga

import (
	"fmt"

	"github.com/braiins-s9/hashboard-core/internal/hberrors"
)

// FClkSpeedHz is the FPGA-side reference clock the baud-rate register
// is divided down from.
const FClkSpeedHz = 50_000_000

// FClkBaseBaudDiv is the FPGA UART's fixed oversampling divisor.
const FClkBaseBaudDiv = 8

// baudToleranceNum/Den bound how far the achievable baud rate may
// drift from the requested one before a request is rejected as
// unsupportable, expressed as a 5% fraction to avoid floating point.
const (
	baudToleranceNum = 5
	baudToleranceDen = 100
)

// CalcBaudClockDiv computes the UART clock divisor register value and
// the baud rate it actually yields, given the reference clock and its
// oversampling factor. It rejects requests the divider can't
// approximate within 5%.
func CalcBaudClockDiv(baudRate, clockHz, baseDiv int) (div int, actualBaud int, err error) {
	if baudRate <= 0 || clockHz <= 0 || baseDiv <= 0 {
		return 0, 0, fmt.Errorf("fpga: invalid baud divisor inputs: %w", hberrors.ErrBaudRate)
	}

	rounded := roundDiv(clockHz, baseDiv*baudRate)
	div = rounded - 1
	if div < 0 {
		return 0, 0, fmt.Errorf("fpga: baud rate %d too high for clock %d: %w", baudRate, clockHz, hberrors.ErrBaudRate)
	}

	actualBaud = clockHz / (baseDiv * (div + 1))

	delta := actualBaud - baudRate
	if delta < 0 {
		delta = -delta
	}
	if delta*baudToleranceDen > baudRate*baudToleranceNum {
		return 0, 0, fmt.Errorf("fpga: baud rate %d not achievable within tolerance (nearest %d): %w", baudRate, actualBaud, hberrors.ErrBaudRate)
	}
	return div, actualBaud, nil
}

// roundDiv computes round(a/b) using integer arithmetic.
func roundDiv(a, b int) int {
	return (a + b/2) / b
}

// PLLFrequencyTable maps the supported chip PLL frequencies (MHz) to
// their FPGA-side PLL register encoding. Derived from the board's
// known-good bring-up table; frequencies outside it are rejected
// rather than extrapolated, since an unverified divider can desync
// the chip chain's shared clock tree.
var PLLFrequencyTable = map[int]uint32{
	200: 0x0068,
	250: 0x0083,
	300: 0x009e,
	350: 0x00b9,
	400: 0x00d4,
	450: 0x00ef,
	500: 0x010a,
	550: 0x0125,
	600: 0x0140,
	650: 0x015b,
}

// PLLRegisterFor looks up the register encoding for a requested chip
// PLL frequency in MHz.
func PLLRegisterFor(freqMHz int) (uint32, error) {
	v, ok := PLLFrequencyTable[freqMHz]
	if !ok {
		return 0, fmt.Errorf("fpga: unsupported pll frequency %d MHz: %w", freqMHz, hberrors.ErrPLL)
	}
	return v, nil
}
