// Package car owns the canonical vehicle state and arbitrates between
// manual commands and the autonomous avoidance loop. The Service is the
// single mutator: every accepted change updates the snapshot and pushes it
// to observers before the next mutation runs.
package car

// Direction of drive.
const (
	DirectionForward  = 1
	DirectionStopped  = 0
	DirectionBackward = -1
)

// State is the canonical vehicle snapshot pushed to observers after every
// accepted mutation. Other components only ever see copies.
type State struct {
	Speed                   float64 `json:"speed"`
	Direction               int     `json:"direction"`
	SteeringAngle           float64 `json:"steeringAngle"`
	CamPan                  float64 `json:"camPan"`
	CamTilt                 float64 `json:"camTilt"`
	MaxSpeed                float64 `json:"maxSpeed"`
	AvoidObstacles          bool    `json:"avoidObstacles"`
	Distance                float64 `json:"distance"`
	AutoMeasureDistanceMode bool    `json:"autoMeasureDistanceMode"`
	LEDBlinking             bool    `json:"ledBlinking"`
}
