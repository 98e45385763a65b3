package stats

import "time"

// windowState holds one closed window's accumulated value, used to
// blend into the current window's estimate while it's still young.
type windowState struct {
	mean float64
	set  bool
}

// WindowedTimeMean estimates a per-second rate from a stream of
// timestamped samples (e.g. difficulty-weighted share credits),
// blending a closed previous window into the current one so the
// estimate doesn't jump discontinuously at each window boundary.
type WindowedTimeMean struct {
	interval time.Duration

	currStart time.Time
	currSum   float64
	haveCurr  bool

	prev windowState
}

// NewWindowedTimeMean builds a mean estimator over windows of length
// interval.
func NewWindowedTimeMean(interval time.Duration) *WindowedTimeMean {
	return &WindowedTimeMean{interval: interval}
}

// Insert accumulates sample into the current window, rolling the
// window over to a new one starting at now if the current window has
// run for at least the configured interval.
func (w *WindowedTimeMean) Insert(sample float64, now time.Time) {
	if !w.haveCurr {
		w.currStart = now
		w.haveCurr = true
	}

	elapsed := now.Sub(w.currStart)
	if elapsed >= w.interval {
		w.closeCurrentWindow(elapsed, now)
	}

	w.currSum += sample
}

func (w *WindowedTimeMean) closeCurrentWindow(elapsed time.Duration, now time.Time) {
	if elapsed < 2*w.interval {
		seconds := elapsed.Seconds()
		mean := 0.0
		if seconds > 0 {
			mean = w.currSum / seconds * w.interval.Seconds()
		}
		w.prev = windowState{mean: mean, set: true}
	} else {
		w.prev = windowState{mean: 0, set: true}
	}
	w.currStart = now
	w.currSum = 0
}

// Measure reports the estimated per-second rate as of now. Calling it
// with a time earlier than the most recent Insert is a programming
// error and produces a meaningless (possibly negative) elapsed time.
func (w *WindowedTimeMean) Measure(now time.Time) float64 {
	if !w.haveCurr {
		return 0
	}

	elapsed := now.Sub(w.currStart)
	intervalSeconds := w.interval.Seconds()

	if elapsed >= 2*w.interval {
		return 0
	}

	if !w.prev.set {
		s := elapsed.Seconds()
		if s <= 0 {
			return 0
		}
		return w.currSum / s
	}

	if elapsed >= w.interval {
		return w.currSum / elapsed.Seconds()
	}

	fraction := elapsed.Seconds() / intervalSeconds
	return (w.currSum + w.prev.mean*(1-fraction)) / intervalSeconds
}
