package usecase

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer(t *testing.T) {
	t.Run("only the last scheduled run fires", func(t *testing.T) {
		d := NewDebouncer(20 * time.Millisecond)
		var fired int32

		for i := 0; i < 5; i++ {
			d.Schedule(func() { atomic.AddInt32(&fired, 1) })
			time.Sleep(2 * time.Millisecond)
		}

		time.Sleep(100 * time.Millisecond)
		if got := atomic.LoadInt32(&fired); got != 1 {
			t.Errorf("fired %d times, want 1", got)
		}
	})

	t.Run("cancel clears the pending run", func(t *testing.T) {
		d := NewDebouncer(20 * time.Millisecond)
		var fired int32

		d.Schedule(func() { atomic.AddInt32(&fired, 1) })
		if !d.Pending() {
			t.Error("expected a pending run after Schedule")
		}

		d.Cancel()
		if d.Pending() {
			t.Error("expected no pending run after Cancel")
		}

		time.Sleep(60 * time.Millisecond)
		if got := atomic.LoadInt32(&fired); got != 0 {
			t.Errorf("fired %d times after cancel, want 0", got)
		}
	})

	t.Run("cancel without pending run is a no-op", func(t *testing.T) {
		d := NewDebouncer(20 * time.Millisecond)
		d.Cancel()
		if d.Pending() {
			t.Error("expected no pending run")
		}
	})

	t.Run("pending clears after firing", func(t *testing.T) {
		d := NewDebouncer(10 * time.Millisecond)
		done := make(chan struct{})

		d.Schedule(func() { close(done) })

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("scheduled run never fired")
		}

		// The timer callback clears its handle before running fn
		if d.Pending() {
			t.Error("expected no pending run after firing")
		}
	})
}
