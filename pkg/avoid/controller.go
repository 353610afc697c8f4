package avoid

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/distance"
)

// Frame is the controller's per-tick output: the selected state, the ramped
// speed and steering angle to command, and the smoothed distance that drove
// the decision. Frames are produced and consumed once, never stored.
type Frame struct {
	State       State
	TargetSpeed float64
	TargetAngle float64
	Smoothed    float64
	At          time.Time
}

// FrameSink receives one Frame per control tick. The command arbiter
// implements this.
type FrameSink interface {
	ApplyFrame(Frame)
}

// Controller runs the avoidance state machine at a fixed rate against the
// distance cell. All decision logic lives in Tick so tests can drive it
// with a fake clock; Run is just the ticker loop around it.
type Controller struct {
	cell *distance.Cell
	sink FrameSink

	mu     sync.Mutex
	params Params

	// Tick state, touched only by Tick (single caller at a time).
	state        State
	smoothed     float64
	haveSmoothed bool
	lastValid    time.Time
	haveValid    bool
	lastSeen     time.Time // At of the newest sample already folded into the EMA
	cruiseSince  time.Time
	cruiseHold   bool
	dwellUntil   time.Time
	speed        float64 // ramped commanded speed

	now func() time.Time
}

// NewController returns a controller reading cell and emitting frames to
// sink. params must already be validated.
func NewController(cell *distance.Cell, sink FrameSink, params Params) *Controller {
	return &Controller{
		cell:   cell,
		sink:   sink,
		params: params,
		state:  Wait,
		now:    time.Now,
	}
}

// SetParams swaps the tuning atomically between ticks. Invalid params are
// rejected and the previous tuning stays in effect.
func (c *Controller) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.params = p
	c.mu.Unlock()
	return nil
}

// Params returns the active tuning.
func (c *Controller) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// reset clears the per-session tick state. The supervisor neutrals the
// vehicle between sessions, so a restarted loop must ramp up from zero
// again instead of resuming the previous session's commanded speed.
func (c *Controller) reset() {
	c.state = Wait
	c.speed = 0
	c.cruiseHold = false
	c.dwellUntil = time.Time{}
}

// Run ticks the state machine every loop period until ctx is cancelled.
// Cancellation is observed at the tick boundary.
func (c *Controller) Run(ctx context.Context) error {
	c.reset()

	ticker := time.NewTicker(c.Params().loopPeriod())
	defer ticker.Stop()

	period := c.Params().loopPeriod()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			frame := c.Tick(c.now())
			c.sink.ApplyFrame(frame)

			if p := c.Params().loopPeriod(); p != period {
				period = p
				ticker.Reset(period)
			}
		}
	}
}

// Tick runs one control step at the given instant and returns the frame to
// actuate. Safe for a single caller; Run is that caller in production.
func (c *Controller) Tick(now time.Time) Frame {
	c.mu.Lock()
	p := c.params
	c.mu.Unlock()

	c.observe(now, p)

	stale := !c.haveValid || now.Sub(c.lastValid) > p.staleTimeout()
	if stale {
		// Fail-safe: stale data never drives the vehicle.
		c.state = Wait
		c.cruiseHold = false
		c.dwellUntil = time.Time{}
	} else if !now.Before(c.dwellUntil) {
		c.dwellUntil = time.Time{}
		c.selectState(now, p)
	}

	target, angle := c.targets(p)
	if stale {
		target, angle = 0, 0
	}
	c.speed = ramp(c.speed, target, p.AccelRate, p.DecelRate, p.LoopPeriod)

	return Frame{
		State:       c.state,
		TargetSpeed: c.speed,
		TargetAngle: angle,
		Smoothed:    c.smoothed,
		At:          now,
	}
}

// observe folds the newest sample into the EMA. Sentinels and already-seen
// samples leave the smoothed value and the valid-sample clock untouched.
func (c *Controller) observe(now time.Time, p Params) {
	s, ok := c.cell.Load()
	if !ok || !s.Valid() {
		return
	}
	if c.haveValid && !s.At.After(c.lastSeen) {
		// Same sample as last tick; it already counted.
		return
	}
	c.lastSeen = s.At

	if !c.haveSmoothed {
		c.smoothed = s.Value
		c.haveSmoothed = true
	} else {
		c.smoothed = p.EMAAlpha*s.Value + (1-p.EMAAlpha)*c.smoothed
	}
	c.lastValid = s.At
	c.haveValid = true
}

// selectState picks the next state from the smoothed distance, most
// restrictive threshold first. Entry into Cruise is gated by the hold
// timer; the band between caution and safe keeps the prior state.
func (c *Controller) selectState(now time.Time, p Params) {
	switch {
	case c.smoothed < p.Stop:
		c.enter(Wait, now.Add(p.waitTime()))
	case c.smoothed < p.Danger:
		c.enter(Reverse, now.Add(p.reverseTime()))
	case c.smoothed < p.Caution:
		c.enter(Turn, time.Time{})
	case c.smoothed >= p.Safe:
		if c.state == Cruise {
			return
		}
		if !c.cruiseHold {
			c.cruiseHold = true
			c.cruiseSince = now
		}
		if now.Sub(c.cruiseSince) >= p.holdCruise() {
			c.state = Cruise
			c.cruiseHold = false
			log.Debug("avoid: committed cruise", "smoothed", c.smoothed)
		}
	default:
		// Between caution and safe: hold the prior state, and a dip below
		// safe restarts the cruise hold from scratch.
		c.cruiseHold = false
	}
}

func (c *Controller) enter(s State, dwellUntil time.Time) {
	c.cruiseHold = false
	c.dwellUntil = dwellUntil
	if c.state != s {
		log.Debug("avoid: state change", "from", c.state, "to", s, "smoothed", c.smoothed)
	}
	c.state = s
}

func (c *Controller) targets(p Params) (speed, angle float64) {
	switch c.state {
	case Cruise:
		return p.ForwardSpeed, 0
	case Turn:
		return p.TurnSpeed, p.TurnAngle
	case Reverse:
		return -p.ReverseSpeed, p.ReverseAngle
	default:
		return 0, 0
	}
}

// ramp moves cur toward target, limited to accel*dt per step when speed
// magnitude grows and decel*dt when it shrinks. Never overshoots.
func ramp(cur, target, accel, decel, dt float64) float64 {
	if cur == target {
		return cur
	}
	rate := decel
	if math.Abs(target) > math.Abs(cur) {
		rate = accel
	}
	step := rate * dt
	if target > cur {
		cur += step
		if cur > target {
			cur = target
		}
	} else {
		cur -= step
		if cur < target {
			cur = target
		}
	}
	return cur
}
