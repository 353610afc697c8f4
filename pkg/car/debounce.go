package car

import "time"

// Debouncer accepts at most one trigger per interval, measured from the
// last accepted trigger on a monotonic clock. Pure function of elapsed
// time, so tests inject their own clock.
type Debouncer struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

// NewDebouncer returns a debouncer that accepts immediately on first use.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval, now: time.Now}
}

// Allow reports whether a trigger at this instant is accepted, and if so
// restarts the window.
func (d *Debouncer) Allow() bool {
	now := d.now()
	if !d.last.IsZero() && now.Sub(d.last) < d.interval {
		return false
	}
	d.last = now
	return true
}
