package car

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/avoid"
	"github.com/teslashibe/go-rover/pkg/distance"
	"github.com/teslashibe/go-rover/pkg/hw"
)

// Broadcaster pushes a snapshot to every connected observer. *hub.Hub
// satisfies it.
type Broadcaster interface {
	BroadcastJSON(v any) error
}

// ControlTask starts and cancels the autonomous control loop. The task
// supervisor satisfies it; Cancel must not return before actuation is
// neutral.
type ControlTask interface {
	Start(worker func(context.Context) error) error
	Cancel()
}

// Indicator runs the blinking indicator LED. *hw.Blinker satisfies it.
type Indicator interface {
	SetBlinking(on bool)
}

// Config tunes service policy.
type Config struct {
	// RejectManualWhileAuto rejects manual movement and steering commands
	// while obstacle avoidance is enabled. When false they are accepted
	// and the two sources interleave, which is rarely what an operator
	// wants; the default is true.
	RejectManualWhileAuto bool

	// ToggleDebounce is the minimum spacing between accepted avoid-mode
	// toggles.
	ToggleDebounce time.Duration

	// MaxSpeed is the initial speed ceiling in percent.
	MaxSpeed float64
}

// DefaultConfig returns the standard service policy.
func DefaultConfig() Config {
	return Config{
		RejectManualWhileAuto: true,
		ToggleDebounce:        time.Second,
		MaxSpeed:              50,
	}
}

// Service owns the canonical State. Exactly one entry point exists for
// manual commands (ProcessAction) and one for the avoidance loop
// (ApplyFrame); the mutex makes each mutation plus its broadcast atomic, so
// a manual action and a control tick never interleave mid-update.
type Service struct {
	mu    sync.Mutex
	state State

	act       hw.Actuator
	cell      *distance.Cell
	bc        Broadcaster
	task      ControlTask
	worker    func(context.Context) error
	indicator Indicator
	debounce  *Debouncer
	cfg       Config

	// after runs outside the mutex once the current action commits.
	// Toggles use it to start or cancel the control task without holding
	// the lock the control loop needs.
	after func()
}

// NewService returns a service at rest with the given collaborators.
// task and bc may be nil (headless or test use).
func NewService(act hw.Actuator, cell *distance.Cell, bc Broadcaster, task ControlTask, cfg Config) *Service {
	return &Service{
		act:      act,
		cell:     cell,
		bc:       bc,
		task:     task,
		debounce: NewDebouncer(cfg.ToggleDebounce),
		cfg:      cfg,
		state: State{
			MaxSpeed: cfg.MaxSpeed,
			Distance: distance.NoEcho,
		},
	}
}

// SetAvoidLoop installs the worker the control task runs when avoidance is
// toggled on. Wired once at startup.
func (s *Service) SetAvoidLoop(worker func(context.Context) error) {
	s.mu.Lock()
	s.worker = worker
	s.mu.Unlock()
}

// SetIndicator installs the blinking LED driver. Without one, the LED
// action drives the LED statically.
func (s *Service) SetIndicator(ind Indicator) {
	s.mu.Lock()
	s.indicator = ind
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (s *Service) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Distance returns the latest range reading with sentinel semantics: the
// measured value, or NoEcho/TooClose when the sensor had none.
func (s *Service) Distance() float64 {
	if s.cell == nil {
		return distance.NoEcho
	}
	sample, ok := s.cell.Load()
	if !ok {
		return distance.NoEcho
	}
	return sample.Value
}

// ProcessAction applies one named manual action and returns the resulting
// snapshot. Unknown actions and malformed payloads come back as
// ErrUnknownAction / ErrInvalidPayload; both leave the state untouched and
// the connection usable. Movement actions are rejected while avoidance
// drives, per Config.RejectManualWhileAuto.
func (s *Service) ProcessAction(action string, payload json.RawMessage) (State, error) {
	h, ok := dispatch[action]
	if !ok {
		return s.Snapshot(), fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	s.mu.Lock()
	if h.movement && s.cfg.RejectManualWhileAuto && s.state.AvoidObstacles {
		st := s.state
		s.mu.Unlock()
		return st, ErrAutonomousActive
	}

	err := h.apply(s, payload)
	st := s.state
	after := s.after
	s.after = nil
	s.mu.Unlock()

	if after != nil {
		after()
	}
	return st, err
}

// RunDistanceReporter periodically refreshes the distance field and
// broadcasts it while auto-measure mode is on. Gives observers live range
// telemetry without polling the query endpoint.
func (s *Service) RunDistanceReporter(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.state.AutoMeasureDistanceMode && s.cell != nil {
				if sample, ok := s.cell.Load(); ok {
					s.state.Distance = sample.Value
					s.broadcastLocked()
				}
			}
			s.mu.Unlock()
		}
	}
}

// ApplyFrame consumes one avoidance control tick. Frames arriving while
// avoidance is disabled are dropped; the loop may still be winding down
// after a toggle-off.
func (s *Service) ApplyFrame(f avoid.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.AvoidObstacles {
		return
	}

	s.state.Speed = math.Abs(f.TargetSpeed)
	s.state.Direction = speedDirection(f.TargetSpeed)
	s.state.SteeringAngle = f.TargetAngle
	s.state.Distance = f.Smoothed

	// Transient bus faults skip this tick's actuation; the next frame
	// retries.
	if err := s.act.SetSpeed(f.TargetSpeed); err != nil {
		log.Warn("actuation skipped", "op", "speed", "err", err)
	} else if err := s.act.SetSteering(f.TargetAngle); err != nil {
		log.Warn("actuation skipped", "op", "steering", "err", err)
	}

	s.broadcastLocked()
}

func speedDirection(speed float64) int {
	switch {
	case speed > 0:
		return DirectionForward
	case speed < 0:
		return DirectionBackward
	default:
		return DirectionStopped
	}
}

func (s *Service) broadcastLocked() {
	if s.bc == nil {
		return
	}
	if err := s.bc.BroadcastJSON(s.state); err != nil {
		log.Warn("state broadcast failed", "err", err)
	}
}

func (s *Service) actuate(op string, err error) {
	if err != nil {
		log.Warn("actuation skipped", "op", op, "err", err)
	}
}

// Action handlers. All run with the mutex held.

func (s *Service) doForward(json.RawMessage) error {
	s.state.Direction = DirectionForward
	s.state.Speed = s.state.MaxSpeed
	s.actuate("speed", s.act.SetSpeed(s.state.MaxSpeed))
	s.broadcastLocked()
	return nil
}

func (s *Service) doBackward(json.RawMessage) error {
	s.state.Direction = DirectionBackward
	s.state.Speed = s.state.MaxSpeed
	s.actuate("speed", s.act.SetSpeed(-s.state.MaxSpeed))
	s.broadcastLocked()
	return nil
}

func (s *Service) doStop(json.RawMessage) error {
	s.state.Direction = DirectionStopped
	s.state.Speed = 0
	s.actuate("speed", s.act.SetSpeed(0))
	s.broadcastLocked()
	return nil
}

func (s *Service) doSteer(payload json.RawMessage) error {
	angle, err := decodeAngle(payload, -45, 45)
	if err != nil {
		return err
	}
	s.state.SteeringAngle = angle
	s.actuate("steering", s.act.SetSteering(angle))
	s.broadcastLocked()
	return nil
}

func (s *Service) doCamPan(payload json.RawMessage) error {
	angle, err := decodeAngle(payload, -90, 90)
	if err != nil {
		return err
	}
	s.state.CamPan = angle
	s.actuate("cam pan", s.act.SetCamPan(angle))
	s.broadcastLocked()
	return nil
}

func (s *Service) doCamTilt(payload json.RawMessage) error {
	angle, err := decodeAngle(payload, -90, 90)
	if err != nil {
		return err
	}
	s.state.CamTilt = angle
	s.actuate("cam tilt", s.act.SetCamTilt(angle))
	s.broadcastLocked()
	return nil
}

func (s *Service) doCamCenter(json.RawMessage) error {
	s.state.CamPan = 0
	s.state.CamTilt = 0
	s.actuate("cam pan", s.act.SetCamPan(0))
	s.actuate("cam tilt", s.act.SetCamTilt(0))
	s.broadcastLocked()
	return nil
}

func (s *Service) doLEDBlink(json.RawMessage) error {
	s.state.LEDBlinking = !s.state.LEDBlinking
	if s.indicator != nil {
		s.indicator.SetBlinking(s.state.LEDBlinking)
	} else {
		s.actuate("led", s.act.SetLED(s.state.LEDBlinking))
	}
	s.broadcastLocked()
	return nil
}

func (s *Service) doMaxSpeed(payload json.RawMessage) error {
	v, err := decodeValue(payload, 0, 100)
	if err != nil {
		return err
	}
	s.state.MaxSpeed = v
	if s.state.Direction != DirectionStopped {
		s.state.Speed = v
		s.actuate("speed", s.act.SetSpeed(v*float64(s.state.Direction)))
	}
	s.broadcastLocked()
	return nil
}

// doToggleAvoid flips autonomous mode. Repeat requests inside the debounce
// window are silently ignored. An accepted toggle resets actuation to
// neutral before the mode resumes, and starts or cancels the control task
// once the mutation has committed.
func (s *Service) doToggleAvoid(json.RawMessage) error {
	if !s.debounce.Allow() {
		return nil
	}

	s.state.AvoidObstacles = !s.state.AvoidObstacles
	s.state.Speed = 0
	s.state.Direction = DirectionStopped
	s.state.SteeringAngle = 0
	s.state.CamPan = 0
	s.state.CamTilt = 0
	s.actuate("neutral", s.act.Neutral())

	enabled := s.state.AvoidObstacles
	if s.task != nil {
		worker := s.worker
		s.after = func() {
			if enabled {
				if worker == nil {
					log.Error("avoid toggled on with no control loop wired")
					return
				}
				if err := s.task.Start(worker); err != nil {
					log.Warn("control task start", "err", err)
				}
			} else {
				s.task.Cancel()
			}
		}
	}

	log.Info("avoid mode toggled", "enabled", enabled)
	s.broadcastLocked()
	return nil
}

func (s *Service) doAutoMeasure(json.RawMessage) error {
	s.state.AutoMeasureDistanceMode = !s.state.AutoMeasureDistanceMode
	s.broadcastLocked()
	return nil
}

// doDistance refreshes the distance field from the latest sample. Read-only
// telemetry: no broadcast.
func (s *Service) doDistance(json.RawMessage) error {
	if s.cell == nil {
		return nil
	}
	if sample, ok := s.cell.Load(); ok {
		s.state.Distance = sample.Value
	}
	return nil
}
