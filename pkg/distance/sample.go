// Package distance provides the rangefinder polling loop and the single-slot
// cell that bridges it to the obstacle-avoidance controller.
package distance

import "time"

// Sentinel readings published in place of a distance when the sensor could
// not produce one.
const (
	// NoEcho means the sensor timed out waiting for an echo.
	NoEcho = -1.0
	// TooClose means the reading was structurally valid but unusable
	// (object inside the sensor's minimum range).
	TooClose = -2.0
)

// Sample is one rangefinder reading in centimeters, stamped at publish time.
// Value may be a sentinel; check Valid before using it for control.
type Sample struct {
	Value float64
	At    time.Time
}

// Valid reports whether the sample carries a usable measurement.
func (s Sample) Valid() bool {
	return s.Value >= 0
}

// Age returns how old the sample is relative to now.
func (s Sample) Age(now time.Time) time.Duration {
	return now.Sub(s.At)
}
