package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialStatusIsCreated(t *testing.T) {
	m := NewMonitor()
	assert.Equal(t, Created, m.Current())
}

func TestStartRunStopHappyPath(t *testing.T) {
	m := NewMonitor()
	require.True(t, m.InitiateStarting())
	assert.Equal(t, Starting, m.Current())

	require.True(t, m.SetRunning())
	assert.Equal(t, Running, m.Current())

	require.True(t, m.InitiateStopping())
	assert.Equal(t, Stopping, m.Current())
	assert.True(t, m.IsShuttingDown())

	require.True(t, m.CanStop())
	assert.Equal(t, Stopped, m.Current())
}

func TestInitiateStartingRejectedWhileRunning(t *testing.T) {
	m := NewMonitor()
	m.InitiateStarting()
	m.SetRunning()
	assert.False(t, m.InitiateStarting())
	assert.Equal(t, Running, m.Current())
}

func TestInitiateStartingDuringStoppingBecomesRestarting(t *testing.T) {
	m := NewMonitor()
	m.InitiateStarting()
	m.SetRunning()
	m.InitiateStopping()

	require.True(t, m.InitiateStarting())
	assert.Equal(t, Restarting, m.Current())

	// CanStop on a Restarting chain cancels the stop instead of
	// completing it.
	require.True(t, m.CanStop())
	assert.Equal(t, Starting, m.Current())
}

func TestFailingTransitionsToFailed(t *testing.T) {
	m := NewMonitor()
	m.InitiateStarting()
	m.SetRunning()

	require.True(t, m.InitiateFailing())
	assert.Equal(t, Failing, m.Current())
	assert.True(t, m.IsShuttingDown())

	require.True(t, m.CanStop())
	assert.Equal(t, Failed, m.Current())
}

func TestCanStopNoOpFromStableStates(t *testing.T) {
	m := NewMonitor()
	assert.False(t, m.CanStop())
	assert.Equal(t, Created, m.Current())
}

func TestRestartFromCreatedGoesToStarting(t *testing.T) {
	m := NewMonitor()
	require.True(t, m.InitiateStarting())
	assert.Equal(t, Starting, m.Current())
}
