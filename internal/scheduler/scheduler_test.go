package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduleFires(t *testing.T) {
	s := New()
	var fired atomic.Int32
	done := make(chan struct{})
	s.Schedule("j1", time.Now().Add(5*time.Millisecond), func() {
		fired.Add(1)
		close(done)
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not fire")
	}
	if fired.Load() != 1 {
		t.Fatalf("expected one fire, got %d", fired.Load())
	}
	if s.Pending() != 0 {
		t.Fatalf("fired job still tracked")
	}
}

func TestCancelPreventsFire(t *testing.T) {
	s := New()
	var fired atomic.Int32
	s.Schedule("j1", time.Now().Add(20*time.Millisecond), func() { fired.Add(1) })
	s.Cancel("j1")
	time.Sleep(50 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatalf("cancelled job fired")
	}
}

func TestCancelUnknownAndFiredIsNoop(t *testing.T) {
	s := New()
	s.Cancel("never-scheduled")

	done := make(chan struct{})
	s.Schedule("j1", time.Now(), func() { close(done) })
	<-done
	s.Cancel("j1") // already fired
}

func TestRescheduleReplacesTimer(t *testing.T) {
	s := New()
	var first, second atomic.Int32
	s.Schedule("j1", time.Now().Add(10*time.Millisecond), func() { first.Add(1) })
	done := make(chan struct{})
	s.Schedule("j1", time.Now().Add(20*time.Millisecond), func() {
		second.Add(1)
		close(done)
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("replacement job did not fire")
	}
	if first.Load() != 0 {
		t.Fatalf("superseded timer fired")
	}
}

func TestPastDeadlineFiresImmediately(t *testing.T) {
	s := New()
	done := make(chan struct{})
	s.Schedule("j1", time.Now().Add(-time.Minute), func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("past-deadline job did not fire")
	}
}
