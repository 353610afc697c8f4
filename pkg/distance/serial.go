package distance

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"
)

// SerialRanger talks to the rangefinder MCU over a serial line using a
// request/response protocol: write "R\n", read back one line that is either
// a distance in centimeters, "TIMEOUT" (no echo) or "MIN" (too close).
type SerialRanger struct {
	port    serial.Port
	scanner *bufio.Scanner
	timeout time.Duration
}

// OpenSerialRanger opens the rangefinder on the named serial device.
// timeout bounds each individual read; it maps to ErrNoEcho, not to a
// structural fault.
func OpenSerialRanger(portName string, baud int, timeout time.Duration) (*SerialRanger, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open rangefinder %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set rangefinder read timeout: %w", err)
	}

	return &SerialRanger{
		port:    port,
		scanner: bufio.NewScanner(port),
		timeout: timeout,
	}, nil
}

// Measure implements Ranger.
func (r *SerialRanger) Measure(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if _, err := r.port.Write([]byte("R\n")); err != nil {
		return 0, fmt.Errorf("rangefinder write: %w", err)
	}

	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return 0, fmt.Errorf("rangefinder read: %w", err)
		}
		// Read deadline expired with no line.
		return 0, ErrNoEcho
	}

	line := strings.TrimSpace(r.scanner.Text())
	switch line {
	case "TIMEOUT":
		return 0, ErrNoEcho
	case "MIN":
		return 0, ErrTooClose
	}

	v, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return 0, fmt.Errorf("rangefinder: malformed reading %q: %w", line, err)
	}
	return v, nil
}

// Close closes the serial port.
func (r *SerialRanger) Close() error {
	return r.port.Close()
}
