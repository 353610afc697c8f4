// Package config provides configuration helpers for go-rover commands.
package config

import (
	"os"
	"strconv"
	"time"
)

// Default rover configuration.
const (
	DefaultWebPort      = "8080"
	DefaultMotorPort    = "/dev/ttyACM0"
	DefaultRangerPort   = "/dev/ttyACM1"
	DefaultBaudRate     = 115200
	DefaultPollInterval = 100 * time.Millisecond
	DefaultReadTimeout  = 50 * time.Millisecond
)

// WebPort returns the HTTP listen port from ROVER_PORT or the default.
func WebPort() string {
	if p := os.Getenv("ROVER_PORT"); p != "" {
		return p
	}
	return DefaultWebPort
}

// MotorPort returns the motor controller serial device from ROVER_MOTOR_PORT
// or the default.
func MotorPort() string {
	if p := os.Getenv("ROVER_MOTOR_PORT"); p != "" {
		return p
	}
	return DefaultMotorPort
}

// RangerPort returns the rangefinder serial device from ROVER_RANGER_PORT or
// the default.
func RangerPort() string {
	if p := os.Getenv("ROVER_RANGER_PORT"); p != "" {
		return p
	}
	return DefaultRangerPort
}

// Simulated reports whether the rover should run against simulated hardware
// (ROVER_SIM=1). Useful for development without a vehicle attached.
func Simulated() bool {
	return os.Getenv("ROVER_SIM") == "1"
}

// PollInterval returns the rangefinder poll interval from
// ROVER_POLL_INTERVAL_MS or the default.
func PollInterval() time.Duration {
	if v := os.Getenv("ROVER_POLL_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return DefaultPollInterval
}

// LogLevel returns the logging level from ROVER_LOG_LEVEL or "info".
func LogLevel() string {
	if l := os.Getenv("ROVER_LOG_LEVEL"); l != "" {
		return l
	}
	return "info"
}
