// Package fan implements the PID-driven fan speed controller and the
// fan-control register block it drives: a from-scratch PID (no
// ecosystem PID library fits this shape — see DESIGN.md) wrapped by an
// offset bias so its zero-crossing output lands at a board-calibrated
// baseline PWM instead of at zero.
package fan

// pidController is a standard proportional-integral-derivative
// controller with clamped output; the integral term accumulates
// without a bound of its own. Gains are intentionally allowed to be negative: this board's
// temperature loop is inverted (raising PWM lowers temperature).
type pidController struct {
	pGain, iGain, dGain float64

	target float64

	iState     float64
	prevValue  float64
	havePrev   bool
	outMin     float64
	outMax     float64
}

func newPIDController(pGain, iGain, dGain float64) *pidController {
	return &pidController{pGain: pGain, iGain: iGain, dGain: dGain, outMin: -1e300, outMax: 1e300}
}

func (p *pidController) setTarget(target float64) {
	p.target = target
}

func (p *pidController) setLimits(min, max float64) {
	p.outMin, p.outMax = min, max
}

// update computes the next control output for the measured value,
// given the elapsed time since the previous update in seconds.
func (p *pidController) update(value, deltaT float64) float64 {
	errVal := p.target - value

	pTerm := p.pGain * errVal

	if deltaT > 0 {
		p.iState += errVal * deltaT
	}
	iTerm := p.iGain * p.iState

	var dTerm float64
	if p.havePrev && deltaT > 0 {
		dTerm = p.dGain * (value - p.prevValue) / deltaT
	}
	p.prevValue = value
	p.havePrev = true

	out := pTerm + iTerm - dTerm
	return clamp(out, p.outMin, p.outMax)
}

func (p *pidController) reset() {
	p.iState = 0
	p.havePrev = false
}

func clamp(v, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
