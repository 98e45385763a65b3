package fan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempControlWarmUpLimitsClampLowEnd(t *testing.T) {
	tc := NewTempControl(70.0)
	// Far below target: reverse-acting loop wants max PWM, which is
	// fine, but warm-up limits also forbid going below 60.
	pwm := tc.Update(90.0) // above target -> wants low pwm
	assert.GreaterOrEqual(t, pwm, 60)
	assert.LessOrEqual(t, pwm, 100)
}

func TestTempControlNormalLimitsAllowLowPWM(t *testing.T) {
	tc := NewTempControl(70.0)
	tc.SetNormalLimits()
	pwm := tc.Update(200.0) // way above target, strong negative error after offset bias
	assert.GreaterOrEqual(t, pwm, 1)
	assert.LessOrEqual(t, pwm, 100)
}

func TestTempControlResetDropsIntegralHistory(t *testing.T) {
	tc := NewTempControl(70.0)
	tc.SetNormalLimits()
	tc.Update(90.0)
	time.Sleep(time.Millisecond)
	tc.Update(90.0)
	tc.Reset()
	require.False(t, tc.haveLast)
	assert.Zero(t, tc.pid.inner.iState)
}
