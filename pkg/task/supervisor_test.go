package task

import (
	"context"
	"testing"
	"time"

	"github.com/teslashibe/go-rover/pkg/hw"
)

func blockUntilCancelled(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func TestSupervisor_StartTwiceFails(t *testing.T) {
	s := NewSupervisor(hw.NewSimActuator())

	if err := s.Start(blockUntilCancelled); err != nil {
		t.Fatalf("first start: %v", err)
	}
	defer s.Cancel()

	if err := s.Start(blockUntilCancelled); err != ErrAlreadyRunning {
		t.Fatalf("second start: got %v, want ErrAlreadyRunning", err)
	}
}

func TestSupervisor_CancelGuaranteesNeutral(t *testing.T) {
	act := hw.NewSimActuator()
	s := NewSupervisor(act)

	// Worker holds a non-neutral pose until cancelled, the way a control
	// loop caught mid-maneuver would.
	err := s.Start(func(ctx context.Context) error {
		act.SetSpeed(60)
		act.SetSteering(25)
		act.SetCamPan(30)
		act.SetCamTilt(-15)
		<-ctx.Done()
		return nil
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	s.Cancel()

	// The guarantee holds at the moment Cancel returns, not eventually.
	speed, steering, pan, tilt, _ := act.Snapshot()
	if speed != 0 || steering != 0 || pan != 0 || tilt != 0 {
		t.Fatalf("not neutral after cancel: speed=%v steering=%v pan=%v tilt=%v",
			speed, steering, pan, tilt)
	}
	if act.Neutrals == 0 {
		t.Fatal("neutral was never commanded")
	}
}

func TestSupervisor_CancelAwaitsWorker(t *testing.T) {
	act := hw.NewSimActuator()
	s := NewSupervisor(act)

	exited := make(chan struct{})
	if err := s.Start(func(ctx context.Context) error {
		defer close(exited)
		<-ctx.Done()
		// Cleanup work the worker does on its way out.
		time.Sleep(20 * time.Millisecond)
		return nil
	}); err != nil {
		t.Fatalf("start: %v", err)
	}

	s.Cancel()
	select {
	case <-exited:
	default:
		t.Fatal("cancel returned before the worker finished")
	}
}

func TestSupervisor_RestartAfterCancel(t *testing.T) {
	s := NewSupervisor(hw.NewSimActuator())

	if err := s.Start(blockUntilCancelled); err != nil {
		t.Fatalf("first start: %v", err)
	}
	s.Cancel()

	if err := s.Start(blockUntilCancelled); err != nil {
		t.Fatalf("restart after cancel: %v", err)
	}
	s.Cancel()
}

func TestSupervisor_RestartAfterWorkerExit(t *testing.T) {
	s := NewSupervisor(hw.NewSimActuator())

	done := make(chan struct{})
	if err := s.Start(func(context.Context) error {
		close(done)
		return nil
	}); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-done
	time.Sleep(10 * time.Millisecond)

	if s.Running() {
		t.Fatal("worker exited but supervisor still reports running")
	}
	if err := s.Start(blockUntilCancelled); err != nil {
		t.Fatalf("restart after worker exit: %v", err)
	}
	s.Cancel()
}
