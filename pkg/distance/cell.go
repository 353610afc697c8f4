package distance

import (
	"sync/atomic"
	"time"
)

// Cell is a single-slot overwrite channel between the poller and its
// readers. Only the newest sample matters: a store replaces whatever was
// there, and readers always see some sample that was valid at a past
// instant. One writer, any number of readers, no locking.
type Cell struct {
	latest atomic.Pointer[Sample]
}

// NewCell returns an empty cell.
func NewCell() *Cell {
	return &Cell{}
}

// Store publishes a reading, replacing the previous one.
func (c *Cell) Store(value float64, at time.Time) {
	c.latest.Store(&Sample{Value: value, At: at})
}

// Load returns the most recent sample. ok is false until the first Store.
func (c *Cell) Load() (s Sample, ok bool) {
	p := c.latest.Load()
	if p == nil {
		return Sample{}, false
	}
	return *p, true
}
