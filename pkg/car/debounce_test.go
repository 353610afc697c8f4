package car

import (
	"testing"
	"time"
)

func TestDebouncer(t *testing.T) {
	now := time.Unix(1000, 0)
	d := NewDebouncer(time.Second)
	d.now = func() time.Time { return now }

	if !d.Allow() {
		t.Fatal("first trigger must be accepted")
	}
	now = now.Add(100 * time.Millisecond)
	if d.Allow() {
		t.Fatal("trigger inside the window must be ignored")
	}
	now = now.Add(time.Second)
	if !d.Allow() {
		t.Fatal("trigger after the window must be accepted")
	}

	// A rejected trigger must not restart the window.
	now = now.Add(900 * time.Millisecond)
	if d.Allow() {
		t.Fatal("still inside the window of the last accepted trigger")
	}
	now = now.Add(100 * time.Millisecond)
	if !d.Allow() {
		t.Fatal("window measured from last accepted trigger")
	}
}
