package avoid

// State is the avoidance state machine's current mode.
type State int

const (
	// Cruise drives forward at cruise speed, wheels centered.
	Cruise State = iota
	// Turn steers away from an obstacle in the caution band.
	Turn
	// Reverse backs away from an obstacle in the danger band.
	Reverse
	// Wait holds the vehicle stopped. Entered below the stop threshold and
	// whenever distance data goes stale.
	Wait
)

func (s State) String() string {
	switch s {
	case Cruise:
		return "cruise"
	case Turn:
		return "turn"
	case Reverse:
		return "reverse"
	case Wait:
		return "wait"
	default:
		return "unknown"
	}
}
