package distance

import (
	"context"
	"errors"
	"time"

	"github.com/teslashibe/go-rover/internal/log"
)

// Poller drives a Ranger at a fixed interval and publishes every outcome to
// a Cell: measurements as-is, no-echo as the NoEcho sentinel, too-close as
// TooClose. Staleness is the consumer's problem; the poller just keeps the
// cell as fresh as the sensor allows.
//
// The poller is a leaf. It knows nothing about actuation or the arbiter.
type Poller struct {
	ranger   Ranger
	cell     *Cell
	interval time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewPoller returns a poller publishing into cell every interval.
func NewPoller(ranger Ranger, cell *Cell, interval time.Duration) *Poller {
	return &Poller{
		ranger:   ranger,
		cell:     cell,
		interval: interval,
		now:      time.Now,
	}
}

// Run polls until ctx is cancelled, returning nil on cancellation.
//
// Recoverable sensor errors (ErrNoEcho, ErrTooClose) publish their sentinel
// and the loop continues. Any other measurement error is a structural fault:
// the loop stops and returns it, leaving restart to the supervisor.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.poll(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			log.Error("rangefinder fault, stopping poller", "err", err)
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context) error {
	v, err := p.ranger.Measure(ctx)
	switch {
	case err == nil:
		p.cell.Store(v, p.now())
	case errors.Is(err, ErrNoEcho):
		p.cell.Store(NoEcho, p.now())
	case errors.Is(err, ErrTooClose):
		p.cell.Store(TooClose, p.now())
	default:
		return err
	}
	return nil
}
