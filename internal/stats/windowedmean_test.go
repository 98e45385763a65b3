package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMeasureEmptyIsZero(t *testing.T) {
	w := NewWindowedTimeMean(10 * time.Second)
	assert.Equal(t, 0.0, w.Measure(time.Now()))
}

func TestMeasureWithinFirstWindowBeforePrev(t *testing.T) {
	w := NewWindowedTimeMean(10 * time.Second)
	t0 := time.Now()
	w.Insert(100, t0)
	w.Insert(100, t0.Add(2*time.Second))

	got := w.Measure(t0.Add(4 * time.Second))
	assert.InDelta(t, 200.0/4.0, got, 1e-9)
}

func TestMeasureStaleAfterTwoIntervals(t *testing.T) {
	w := NewWindowedTimeMean(10 * time.Second)
	t0 := time.Now()
	w.Insert(100, t0)
	assert.Equal(t, 0.0, w.Measure(t0.Add(25*time.Second)))
}

func TestMeasureBlendsPreviousWindow(t *testing.T) {
	interval := 10 * time.Second
	w := NewWindowedTimeMean(interval)
	t0 := time.Now()

	// First window: steady 10/s for the full interval.
	w.Insert(100, t0)
	// Roll into the second window.
	w.Insert(0, t0.Add(interval))

	// Halfway through window 2, with nothing accumulated yet, the
	// estimate is exactly half the closed window's mean rate.
	got := w.Measure(t0.Add(interval + interval/2))
	assert.InDelta(t, 5.0, got, 1e-6)
}

func TestMeasureAtOrPastIntervalUsesElapsedSum(t *testing.T) {
	interval := 10 * time.Second
	w := NewWindowedTimeMean(interval)
	t0 := time.Now()
	w.Insert(100, t0)
	w.Insert(0, t0.Add(interval))
	w.Insert(50, t0.Add(interval+5*time.Second))

	got := w.Measure(t0.Add(interval + 12*time.Second))
	assert.InDelta(t, 50.0/12.0, got, 1e-9)
}
