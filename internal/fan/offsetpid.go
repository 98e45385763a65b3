package fan

// offsetPIDController wraps a pidController and biases its output by a
// fixed offset, so a reverse-acting loop with zero gains still settles
// on a sane baseline PWM instead of zero. Limits passed in by the
// caller are board-calibrated PWM percentages; they're translated to
// the inner controller's frame by subtracting the offset, then the
// inner output is translated back by adding it.
type offsetPIDController struct {
	inner  *pidController
	offset float64
}

func newOffsetPIDController(pGain, iGain, dGain, offset float64) *offsetPIDController {
	return &offsetPIDController{inner: newPIDController(pGain, iGain, dGain), offset: offset}
}

func (o *offsetPIDController) setTarget(target float64) {
	o.inner.setTarget(target)
}

func (o *offsetPIDController) setLimits(min, max float64) {
	o.inner.setLimits(min-o.offset, max-o.offset)
}

func (o *offsetPIDController) update(value, deltaT float64) float64 {
	return o.inner.update(value, deltaT) + o.offset
}

func (o *offsetPIDController) reset() {
	o.inner.reset()
}
