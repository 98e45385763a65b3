// Package lifecycle tracks a hashchain's run state through a small,
// closed set of compare-and-set transitions, the way the teacher's
// cgminer-facing status enum guards its own state machine.
package lifecycle

import "sync/atomic"

// Status is a hashchain's lifecycle state.
type Status int

const (
	Created Status = iota
	Starting
	Running
	Stopping
	Failing
	Restarting
	Stopped
	Failed
)

func (s Status) String() string {
	switch s {
	case Created:
		return "created"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Failing:
		return "failing"
	case Restarting:
		return "restarting"
	case Stopped:
		return "stopped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Monitor holds one atomically-transitioned Status cell.
type Monitor struct {
	cell atomic.Value
}

// NewMonitor builds a Monitor starting at Created.
func NewMonitor() *Monitor {
	m := &Monitor{}
	m.cell.Store(Created)
	return m
}

// Current reads the current status.
func (m *Monitor) Current() Status {
	return m.cell.Load().(Status)
}

// compareAndSwap is a small helper around atomic.Value's CAS, since
// Value.CompareAndSwap requires both sides to be the same concrete
// type, which Status always is here.
func (m *Monitor) compareAndSwap(from, to Status) bool {
	return m.cell.CompareAndSwap(from, to)
}

// InitiateStarting moves Created/Stopped/Failed to Starting, or a
// Stopping/Failing shutdown-in-progress to Restarting (canceling the
// stop). Returns false without effect if already
// Starting/Running/Restarting.
func (m *Monitor) InitiateStarting() bool {
	for {
		switch m.Current() {
		case Created, Stopped, Failed:
			if m.compareAndSwap(m.Current(), Starting) {
				return true
			}
		case Stopping, Failing:
			if m.compareAndSwap(m.Current(), Restarting) {
				return true
			}
		case Starting, Running, Restarting:
			return false
		default:
			return false
		}
	}
}

// SetRunning moves Starting to Running.
func (m *Monitor) SetRunning() bool {
	return m.compareAndSwap(Starting, Running)
}

// InitiateStopping moves Running/Starting/Restarting to Stopping.
func (m *Monitor) InitiateStopping() bool {
	for _, from := range []Status{Running, Starting, Restarting} {
		if m.compareAndSwap(from, Stopping) {
			return true
		}
	}
	return false
}

// InitiateFailing moves any state other than Failed/Stopped to
// Failing, recording a hard error on the hashchain.
func (m *Monitor) InitiateFailing() bool {
	for {
		switch current := m.Current(); current {
		case Failed, Stopped:
			return false
		default:
			if m.compareAndSwap(current, Failing) {
				return true
			}
		}
	}
}

// IsShuttingDown reports whether the current status is Stopping or
// Failing.
func (m *Monitor) IsShuttingDown() bool {
	switch m.Current() {
	case Stopping, Failing:
		return true
	default:
		return false
	}
}

// CanStop completes a shutdown in progress: Stopping -> Stopped,
// Failing -> Failed, or Restarting -> Starting (a restart request that
// arrived while stopping cancels the stop instead of completing it).
// Returns false without effect from any other state.
func (m *Monitor) CanStop() bool {
	if m.compareAndSwap(Stopping, Stopped) {
		return true
	}
	if m.compareAndSwap(Failing, Failed) {
		return true
	}
	if m.compareAndSwap(Restarting, Starting) {
		return true
	}
	return false
}
