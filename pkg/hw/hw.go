// Package hw provides interfaces and implementations for rover actuation.
//
// The interfaces are small and composable: consumers depend only on the
// controls they actually use. Two backends exist, a serial bridge to the
// motor MCU and an in-memory simulator for tests and development.
package hw

import (
	"errors"
	"fmt"
)

// DriveController sets the drive motor speed in percent [-100,100].
// Negative values reverse.
type DriveController interface {
	SetSpeed(pct float64) error
}

// SteeringController sets the steering servo angle in degrees [-45,45].
type SteeringController interface {
	SetSteering(deg float64) error
}

// CameraController positions the camera gimbal in degrees.
type CameraController interface {
	SetCamPan(deg float64) error
	SetCamTilt(deg float64) error
}

// LEDController switches the indicator LED.
type LEDController interface {
	SetLED(on bool) error
}

// Actuator is the composite interface for full vehicle actuation.
type Actuator interface {
	DriveController
	SteeringController
	CameraController
	LEDController

	// Neutral stops the drive and centers steering and camera. Used on
	// mode changes and as the cancellation cleanup guarantee.
	Neutral() error
}

// Calibration holds per-vehicle servo trims and steering direction.
// Backends apply it to every command.
type Calibration struct {
	SteeringTrim   float64 `json:"steering_trim"`
	PanTrim        float64 `json:"pan_trim"`
	TiltTrim       float64 `json:"tilt_trim"`
	InvertSteering bool    `json:"invert_steering"`
}

// BusError is a transient hardware-bus fault. One tick's actuation is
// skipped and the next tick retries; it never propagates past the caller.
type BusError struct {
	Op  string
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("hw: bus error during %s: %v", e.Op, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }

// IsBusError reports whether err is a transient bus fault.
func IsBusError(err error) bool {
	var be *BusError
	return errors.As(err, &be)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
