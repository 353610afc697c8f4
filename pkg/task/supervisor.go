// Package task supervises the autonomous control loop as a cancellable
// background task with a hard cleanup guarantee: after Cancel returns, the
// vehicle has been commanded to neutral.
package task

import (
	"context"
	"errors"
	"sync"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/hw"
)

// ErrAlreadyRunning is returned by Start while a task is active.
var ErrAlreadyRunning = errors.New("task: already running")

// Supervisor runs at most one worker at a time.
type Supervisor struct {
	act hw.Actuator

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSupervisor returns a supervisor that neutralizes act on cancellation.
func NewSupervisor(act hw.Actuator) *Supervisor {
	return &Supervisor{act: act}
}

// Start launches worker in the background. Fails with ErrAlreadyRunning if
// a task is active.
func (s *Supervisor) Start(worker func(context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		select {
		case <-s.done:
			// Previous worker exited on its own; release its context.
			s.cancel()
		default:
			return ErrAlreadyRunning
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		if err := worker(ctx); err != nil {
			log.Error("control task exited", "err", err)
		}
	}()
	return nil
}

// Running reports whether a task is active.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Cancel signals the worker, waits for it to finish, and commands neutral
// actuation before returning. The neutral command is unconditional: even a
// worker cancelled mid-tick leaves the vehicle stopped and centered.
// No-op when nothing is running, but neutral is still enforced.
func (s *Supervisor) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	if err := s.act.Neutral(); err != nil {
		// Retry once; a transient bus fault must not leave the vehicle
		// driving with no controller attached.
		if err := s.act.Neutral(); err != nil {
			log.Error("neutral actuation failed on cancel", "err", err)
		}
	}
}
