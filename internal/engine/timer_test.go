package engine

import (
	"testing"
	"time"
)

func TestDeadlineTimer_CountsDownAndExpiresOnce(t *testing.T) {
	timer := newDeadlineTimer(60, time.Millisecond)
	timer.Start()

	last := 60
	deadline := time.After(2 * time.Second)

	for {
		select {
		case left := <-timer.Ticks():
			if left >= last {
				t.Fatalf("tick %d not below previous %d", left, last)
			}
			if left < 0 {
				t.Fatalf("tick went negative: %d", left)
			}
			last = left
		case <-timer.Expired():
			if timer.Remaining() != 0 {
				t.Fatalf("Remaining = %d after expiry, want 0", timer.Remaining())
			}
			// A second receive would panic only on a double close; the
			// closed channel must simply stay readable.
			select {
			case <-timer.Expired():
			default:
				t.Fatal("expiry channel not closed")
			}
			return
		case <-deadline:
			t.Fatal("timer never expired")
		}
	}
}

func TestDeadlineTimer_ProductionIntervalAndInitialRemaining(t *testing.T) {
	timer := NewDeadlineTimer(90)
	if timer.interval != time.Second {
		t.Fatalf("interval = %v, want 1s", timer.interval)
	}
	if timer.Remaining() != 90 {
		t.Fatalf("Remaining = %d before Start, want 90", timer.Remaining())
	}
}

func TestDeadlineTimer_StopPreventsExpiry(t *testing.T) {
	timer := newDeadlineTimer(3, time.Millisecond)
	timer.Start()
	timer.Stop()
	timer.Stop() // idempotent

	select {
	case <-timer.Expired():
		t.Fatal("stopped timer fired expiry")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDeadlineTimer_StopAfterExpiryIsSafe(t *testing.T) {
	timer := newDeadlineTimer(1, time.Millisecond)
	timer.Start()

	select {
	case <-timer.Expired():
	case <-time.After(time.Second):
		t.Fatal("timer never expired")
	}

	timer.Stop() // must not panic or fire again
	if timer.Remaining() != 0 {
		t.Fatalf("Remaining = %d, want 0", timer.Remaining())
	}
}
