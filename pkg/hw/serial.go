package hw

import (
	"fmt"
	"sync"

	"go.bug.st/serial"
)

// SerialActuator drives the motor MCU over a serial line. Commands are
// single text lines ("V <pct>", "S <deg>", "P <deg>", "T <deg>", "L 0|1");
// one line is one bus transaction and the mutex keeps transactions atomic
// when the control loop and the LED blinker share the bus.
type SerialActuator struct {
	mu    sync.Mutex
	port  serial.Port
	calib Calibration
}

var _ Actuator = (*SerialActuator)(nil)

// OpenSerialActuator opens the motor controller on the named device.
func OpenSerialActuator(portName string, baud int, calib Calibration) (*SerialActuator, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open motor controller %s: %w", portName, err)
	}
	return &SerialActuator{port: port, calib: calib}, nil
}

func (a *SerialActuator) send(op, line string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.port.Write([]byte(line + "\n")); err != nil {
		return &BusError{Op: op, Err: err}
	}
	return nil
}

// SetSpeed implements DriveController.
func (a *SerialActuator) SetSpeed(pct float64) error {
	pct = clamp(pct, -100, 100)
	return a.send("set speed", fmt.Sprintf("V %.1f", pct))
}

// SetSteering implements SteeringController.
func (a *SerialActuator) SetSteering(deg float64) error {
	if a.calib.InvertSteering {
		deg = -deg
	}
	deg = clamp(deg+a.calib.SteeringTrim, -45, 45)
	return a.send("set steering", fmt.Sprintf("S %.1f", deg))
}

// SetCamPan implements CameraController.
func (a *SerialActuator) SetCamPan(deg float64) error {
	deg = clamp(deg+a.calib.PanTrim, -90, 90)
	return a.send("set cam pan", fmt.Sprintf("P %.1f", deg))
}

// SetCamTilt implements CameraController.
func (a *SerialActuator) SetCamTilt(deg float64) error {
	deg = clamp(deg+a.calib.TiltTrim, -90, 90)
	return a.send("set cam tilt", fmt.Sprintf("T %.1f", deg))
}

// SetLED implements LEDController.
func (a *SerialActuator) SetLED(on bool) error {
	v := 0
	if on {
		v = 1
	}
	return a.send("set led", fmt.Sprintf("L %d", v))
}

// Neutral stops the drive and centers all servos.
func (a *SerialActuator) Neutral() error {
	if err := a.SetSpeed(0); err != nil {
		return err
	}
	if err := a.SetSteering(0); err != nil {
		return err
	}
	if err := a.SetCamPan(0); err != nil {
		return err
	}
	return a.SetCamTilt(0)
}

// Close closes the serial port.
func (a *SerialActuator) Close() error {
	return a.port.Close()
}
