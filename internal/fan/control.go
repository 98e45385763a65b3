package fan

import "time"

// Default gains for the temperature-to-PWM loop. Negative, because the
// loop runs in reverse: raising PWM lowers temperature, so a positive
// temperature error must drive the output down.
const (
	defaultPGain  = -5.0
	defaultIGain  = -0.03
	defaultDGain  = -0.015
	defaultOffset = 70.0
)

// TempControl turns a temperature reading into a PWM percentage,
// targeting a fixed setpoint and tracking elapsed wall-clock time
// between updates for its integral/derivative terms.
type TempControl struct {
	pid      *offsetPIDController
	lastCall time.Time
	haveLast bool
}

// NewTempControl builds a TempControl targeting targetCelsius with the
// board's default gains, starting out at the warm-up limits (a fan
// controller shouldn't idle low until the board has proven it can hold
// temperature).
func NewTempControl(targetCelsius float64) *TempControl {
	tc := &TempControl{pid: newOffsetPIDController(defaultPGain, defaultIGain, defaultDGain, defaultOffset)}
	tc.pid.setTarget(targetCelsius)
	tc.SetWarmUpLimits()
	return tc
}

// SetWarmUpLimits restricts output to [60,100]: while the board hasn't
// reached thermal steady state yet, the fans are kept near full speed.
func (tc *TempControl) SetWarmUpLimits() {
	tc.pid.setLimits(60.0, 100.0)
}

// SetNormalLimits widens output to [1,100] for steady-state operation.
func (tc *TempControl) SetNormalLimits() {
	tc.pid.setLimits(1.0, 100.0)
}

// Update computes the next PWM percentage for a temperature reading,
// rounding to the nearest whole percent. The first call after
// construction or Reset has no previous sample to derive a delta_t
// from and is treated as a 1-second step.
func (tc *TempControl) Update(temperatureCelsius float64) int {
	now := time.Now()
	deltaT := 1.0
	if tc.haveLast {
		deltaT = now.Sub(tc.lastCall).Seconds()
		if deltaT <= 0 {
			deltaT = 1e-3
		}
	}
	tc.lastCall = now
	tc.haveLast = true

	pwm := tc.pid.update(temperatureCelsius, deltaT)
	rounded := int(pwm + 0.5)
	if rounded < 0 {
		rounded = 0
	}
	if rounded > 100 {
		rounded = 100
	}
	return rounded
}

// Reset clears accumulated integral/derivative state, used when the
// control loop resumes after being suspended (e.g. a chain restart).
func (tc *TempControl) Reset() {
	tc.pid.reset()
	tc.haveLast = false
}
