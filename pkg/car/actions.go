package car

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Action names accepted by ProcessAction.
const (
	ActionForward     = "forward"
	ActionBackward    = "backward"
	ActionStop        = "stop"
	ActionSteer       = "steer"
	ActionCamPan      = "camPan"
	ActionCamTilt     = "camTilt"
	ActionCamCenter   = "camCenter"
	ActionLEDBlink    = "ledBlink"
	ActionMaxSpeed    = "maxSpeed"
	ActionToggleAvoid = "toggleAvoid"
	ActionAutoMeasure = "autoMeasureDistance"
	ActionDistance    = "distance"
)

// Protocol-level action errors. All are reported to the caller; none close
// the connection or stop the service.
var (
	// ErrUnknownAction is returned for an unrecognized action name.
	ErrUnknownAction = errors.New("car: unknown action")
	// ErrInvalidPayload is returned when the payload does not match the
	// action's schema.
	ErrInvalidPayload = errors.New("car: invalid payload")
	// ErrAutonomousActive is returned for manual movement commands while
	// obstacle avoidance is driving.
	ErrAutonomousActive = errors.New("car: autonomous mode active")
)

// anglePayload is the payload for steer, camPan and camTilt.
type anglePayload struct {
	Angle float64 `json:"angle"`
}

// valuePayload is the payload for maxSpeed.
type valuePayload struct {
	Value float64 `json:"value"`
}

func decodeAngle(raw json.RawMessage, min, max float64) (float64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("%w: missing angle", ErrInvalidPayload)
	}
	var p anglePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.Angle < min || p.Angle > max {
		return 0, fmt.Errorf("%w: angle %g out of range [%g,%g]", ErrInvalidPayload, p.Angle, min, max)
	}
	return p.Angle, nil
}

func decodeValue(raw json.RawMessage, min, max float64) (float64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("%w: missing value", ErrInvalidPayload)
	}
	var p valuePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.Value < min || p.Value > max {
		return 0, fmt.Errorf("%w: value %g out of range [%g,%g]", ErrInvalidPayload, p.Value, min, max)
	}
	return p.Value, nil
}

// handler applies one action. Called with the service mutex held.
type handler struct {
	movement bool // subject to the reject-while-autonomous policy
	apply    func(s *Service, payload json.RawMessage) error
}

// dispatch maps action names to handlers. An explicit table keeps
// ErrUnknownAction a typed result instead of a silent branch.
var dispatch = map[string]handler{
	ActionForward:     {movement: true, apply: (*Service).doForward},
	ActionBackward:    {movement: true, apply: (*Service).doBackward},
	ActionStop:        {movement: true, apply: (*Service).doStop},
	ActionSteer:       {movement: true, apply: (*Service).doSteer},
	ActionCamPan:      {apply: (*Service).doCamPan},
	ActionCamTilt:     {apply: (*Service).doCamTilt},
	ActionCamCenter:   {apply: (*Service).doCamCenter},
	ActionLEDBlink:    {apply: (*Service).doLEDBlink},
	ActionMaxSpeed:    {apply: (*Service).doMaxSpeed},
	ActionToggleAvoid: {apply: (*Service).doToggleAvoid},
	ActionAutoMeasure: {apply: (*Service).doAutoMeasure},
	ActionDistance:    {apply: (*Service).doDistance},
}
