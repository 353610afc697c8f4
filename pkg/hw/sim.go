package hw

import "sync"

// SimActuator records the last commanded values. It backs development mode
// and every test that needs to observe actuation.
type SimActuator struct {
	mu sync.Mutex

	Speed    float64
	Steering float64
	CamPan   float64
	CamTilt  float64
	LED      bool

	// Fail, when set, is returned from every command. Lets tests exercise
	// the transient-fault path.
	Fail error

	// Neutrals counts Neutral calls.
	Neutrals int
}

var _ Actuator = (*SimActuator)(nil)

// NewSimActuator returns a simulator at neutral.
func NewSimActuator() *SimActuator {
	return &SimActuator{}
}

func (a *SimActuator) SetSpeed(pct float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Fail != nil {
		return a.Fail
	}
	a.Speed = clamp(pct, -100, 100)
	return nil
}

func (a *SimActuator) SetSteering(deg float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Fail != nil {
		return a.Fail
	}
	a.Steering = clamp(deg, -45, 45)
	return nil
}

func (a *SimActuator) SetCamPan(deg float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Fail != nil {
		return a.Fail
	}
	a.CamPan = clamp(deg, -90, 90)
	return nil
}

func (a *SimActuator) SetCamTilt(deg float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Fail != nil {
		return a.Fail
	}
	a.CamTilt = clamp(deg, -90, 90)
	return nil
}

func (a *SimActuator) SetLED(on bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Fail != nil {
		return a.Fail
	}
	a.LED = on
	return nil
}

func (a *SimActuator) Neutral() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Fail != nil {
		return a.Fail
	}
	a.Speed, a.Steering, a.CamPan, a.CamTilt = 0, 0, 0, 0
	a.Neutrals++
	return nil
}

// Snapshot returns the current commanded values.
func (a *SimActuator) Snapshot() (speed, steering, pan, tilt float64, led bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Speed, a.Steering, a.CamPan, a.CamTilt, a.LED
}
