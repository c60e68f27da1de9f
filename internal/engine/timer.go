package engine

import (
	"sync"
	"sync/atomic"
	"time"
)

// DeadlineTimer is the single countdown owned by a session. It decrements
// once per interval (one second in production), fires its expiry channel
// exactly once when the count reaches zero, and never counts below zero.
// Stop is idempotent; a stopped timer never fires.
type DeadlineTimer struct {
	interval  time.Duration
	remaining atomic.Int64
	ticks     chan int
	expired   chan struct{}
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewDeadlineTimer creates a timer counting down the given number of seconds.
func NewDeadlineTimer(seconds int) *DeadlineTimer {
	return newDeadlineTimer(seconds, time.Second)
}

// newDeadlineTimer allows package tests to compress wall-clock time.
func newDeadlineTimer(seconds int, interval time.Duration) *DeadlineTimer {
	t := &DeadlineTimer{
		interval: interval,
		ticks:    make(chan int, 1),
		expired:  make(chan struct{}),
		stop:     make(chan struct{}),
	}
	t.remaining.Store(int64(seconds))
	return t
}

// Start launches the countdown goroutine. Call exactly once.
func (t *DeadlineTimer) Start() {
	go t.run()
}

func (t *DeadlineTimer) run() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			left := t.remaining.Add(-1)
			if left < 0 {
				// Guard against a tick racing Stop at zero.
				t.remaining.Store(0)
				return
			}

			// Non-blocking publish; a slow listener only misses
			// intermediate values, never the expiry.
			select {
			case t.ticks <- int(left):
			default:
			}

			if left == 0 {
				close(t.expired)
				return
			}
		}
	}
}

// Ticks delivers the remaining-seconds value after each decrement.
func (t *DeadlineTimer) Ticks() <-chan int {
	return t.ticks
}

// Expired is closed once when the countdown reaches zero. It is never
// closed after Stop.
func (t *DeadlineTimer) Expired() <-chan struct{} {
	return t.expired
}

// Remaining reports the seconds left, never negative.
func (t *DeadlineTimer) Remaining() int {
	left := t.remaining.Load()
	if left < 0 {
		return 0
	}
	return int(left)
}

// Stop cancels the countdown. Safe to call any number of times, before or
// after expiry.
func (t *DeadlineTimer) Stop() {
	t.stopOnce.Do(func() {
		close(t.stop)
	})
}
