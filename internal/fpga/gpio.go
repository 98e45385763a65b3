package fpga

import (
	"fmt"
	"os"

	"github.com/braiins-s9/hashboard-core/internal/hberrors"
)

// gpioSysfsRoot is where the reset/plug-presence lines for each
// hashchain are exported, following the board's device-tree wiring.
const gpioSysfsRoot = "/sys/class/gpio"

// ResetLine controls one hashchain's FPGA reset GPIO, exported by the
// device tree at bring-up. A failure here is fatal for the hashchain:
// without a working reset line the chip chain can never be brought up
// in a known state.
type ResetLine struct {
	chainIdx int
	gpioNum  int
}

// NewResetLine binds a ResetLine to the sysfs GPIO number wired for
// chainIdx's reset signal.
func NewResetLine(chainIdx, gpioNum int) *ResetLine {
	return &ResetLine{chainIdx: chainIdx, gpioNum: gpioNum}
}

func (r *ResetLine) valuePath() string {
	return fmt.Sprintf("%s/gpio%d/value", gpioSysfsRoot, r.gpioNum)
}

// AssertReset drives the reset line active (chain held in reset).
func (r *ResetLine) AssertReset() error {
	return r.writeValue("0")
}

// DeassertReset releases the reset line (chain runs).
func (r *ResetLine) DeassertReset() error {
	return r.writeValue("1")
}

func (r *ResetLine) writeValue(v string) error {
	if err := os.WriteFile(r.valuePath(), []byte(v), 0644); err != nil {
		return fmt.Errorf("fpga: chain %d reset gpio%d: %w", r.chainIdx, r.gpioNum, wrapGpio(err))
	}
	return nil
}

// PlugPresent reports whether the hashboard's plug-presence line is
// currently asserted, used at bring-up to decide whether a hashchain
// slot is populated before attempting to open its UIO devices.
func PlugPresent(gpioNum int) (bool, error) {
	path := fmt.Sprintf("%s/gpio%d/value", gpioSysfsRoot, gpioNum)
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("fpga: plug-presence gpio%d: %w", gpioNum, wrapGpio(err))
	}
	return len(data) > 0 && data[0] == '1', nil
}

func wrapGpio(cause error) error {
	return fmt.Errorf("%w: %v", hberrors.ErrGpio, cause)
}
