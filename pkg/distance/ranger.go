package distance

import (
	"context"
	"errors"
	"sync"
)

// Recoverable measurement errors. Anything else returned by a Ranger is a
// structural fault and stops the poller (fail-fast, supervisor restarts it).
var (
	// ErrNoEcho means the sensor timed out waiting for a return pulse.
	ErrNoEcho = errors.New("distance: no echo within timeout")
	// ErrTooClose means the target is inside the sensor's minimum range.
	ErrTooClose = errors.New("distance: reading below minimum range")
)

// Ranger measures distance to the nearest obstacle in centimeters.
// Implementations bound each measurement internally; Measure must return
// once the per-read timeout elapses, reporting ErrNoEcho.
type Ranger interface {
	Measure(ctx context.Context) (float64, error)
}

// SimRanger is a scriptable Ranger for development and tests. Readings are
// returned in order; the last one repeats once the script is exhausted.
type SimRanger struct {
	mu       sync.Mutex
	readings []float64
	errs     []error
	i        int
}

// NewSimRanger returns a SimRanger that replays the given readings.
func NewSimRanger(readings ...float64) *SimRanger {
	return &SimRanger{readings: readings}
}

// Fail queues errors to be returned before any readings.
func (r *SimRanger) Fail(errs ...error) {
	r.mu.Lock()
	r.errs = append(r.errs, errs...)
	r.mu.Unlock()
}

// Measure implements Ranger.
func (r *SimRanger) Measure(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return 0, err
	}
	if len(r.readings) == 0 {
		return 0, ErrNoEcho
	}
	v := r.readings[r.i]
	if r.i < len(r.readings)-1 {
		r.i++
	}
	return v, nil
}
