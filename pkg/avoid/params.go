// Package avoid implements the obstacle-avoidance control loop: distance
// smoothing, threshold state machine with hysteresis, ramped speed output
// and the stale-data fail-safe.
package avoid

import (
	"errors"
	"fmt"
	"time"
)

// Params is the avoidance tuning set. Distances are centimeters, speeds are
// percent of full drive [0,100], angles are degrees, times are seconds.
// Thresholds must satisfy stop <= danger <= caution <= safe.
type Params struct {
	Safe    float64 `json:"safe"`
	Caution float64 `json:"caution"`
	Danger  float64 `json:"danger"`
	Stop    float64 `json:"stop"`

	ForwardSpeed float64 `json:"forward_speed"`
	TurnSpeed    float64 `json:"turn_speed"`
	ReverseSpeed float64 `json:"reverse_speed"`

	TurnAngle    float64 `json:"turn_angle"`
	ReverseAngle float64 `json:"reverse_angle"`

	ReverseTime  float64 `json:"reverse_time_s"`
	WaitTime     float64 `json:"wait_time_s"`
	LoopPeriod   float64 `json:"loop_period_s"`
	HoldCruise   float64 `json:"hold_cruise_s"`
	StaleTimeout float64 `json:"stale_timeout_s"`

	AccelRate float64 `json:"accel_rate"`
	DecelRate float64 `json:"decel_rate"`
	EMAAlpha  float64 `json:"ema_alpha"`
}

// ErrInvalidParams wraps all parameter validation failures.
var ErrInvalidParams = errors.New("avoid: invalid params")

// DefaultParams returns a conservative tuning for a small indoor rover.
func DefaultParams() Params {
	return Params{
		Safe:         60,
		Caution:      35,
		Danger:       20,
		Stop:         10,
		ForwardSpeed: 50,
		TurnSpeed:    40,
		ReverseSpeed: 35,
		TurnAngle:    30,
		ReverseAngle: 20,
		ReverseTime:  1.0,
		WaitTime:     0.5,
		LoopPeriod:   0.05,
		HoldCruise:   0.5,
		StaleTimeout: 0.5,
		AccelRate:    80,
		DecelRate:    200,
		EMAAlpha:     0.4,
	}
}

// Validate checks ranges and the threshold ordering invariant. A Params
// value that fails Validate must never reach the controller.
func (p Params) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidParams, fmt.Sprintf(format, args...))
	}

	if !(p.Stop <= p.Danger && p.Danger <= p.Caution && p.Caution <= p.Safe) {
		return fail("thresholds must satisfy stop <= danger <= caution <= safe, got stop=%g danger=%g caution=%g safe=%g",
			p.Stop, p.Danger, p.Caution, p.Safe)
	}
	for _, s := range []struct {
		name string
		v    float64
	}{
		{"forward_speed", p.ForwardSpeed},
		{"turn_speed", p.TurnSpeed},
		{"reverse_speed", p.ReverseSpeed},
	} {
		if s.v < 0 || s.v > 100 {
			return fail("%s must be in [0,100], got %g", s.name, s.v)
		}
	}
	if p.TurnAngle < -45 || p.TurnAngle > 45 {
		return fail("turn_angle must be in [-45,45], got %g", p.TurnAngle)
	}
	if p.ReverseAngle < 0 || p.ReverseAngle > 45 {
		return fail("reverse_angle must be in [0,45], got %g", p.ReverseAngle)
	}
	for _, t := range []struct {
		name string
		v    float64
	}{
		{"reverse_time_s", p.ReverseTime},
		{"wait_time_s", p.WaitTime},
		{"loop_period_s", p.LoopPeriod},
		{"hold_cruise_s", p.HoldCruise},
		{"stale_timeout_s", p.StaleTimeout},
		{"accel_rate", p.AccelRate},
		{"decel_rate", p.DecelRate},
	} {
		if t.v <= 0 {
			return fail("%s must be > 0, got %g", t.name, t.v)
		}
	}
	if p.EMAAlpha < 0 || p.EMAAlpha > 1 {
		return fail("ema_alpha must be in [0,1], got %g", p.EMAAlpha)
	}
	return nil
}

// Durations derived from the float second fields.

func (p Params) loopPeriod() time.Duration   { return secs(p.LoopPeriod) }
func (p Params) reverseTime() time.Duration  { return secs(p.ReverseTime) }
func (p Params) waitTime() time.Duration     { return secs(p.WaitTime) }
func (p Params) holdCruise() time.Duration   { return secs(p.HoldCruise) }
func (p Params) staleTimeout() time.Duration { return secs(p.StaleTimeout) }

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
