package notion

import (
	"context"
	"sync"
	"time"
)

// DefaultThrottleInterval is the minimum quiet time between two calls.
// Notion rejects bursts well below its documented average rate.
const DefaultThrottleInterval = 300 * time.Millisecond

// Throttle spaces calls by a fixed quiescence interval. It keeps a single
// "last call" watermark shared by every caller: Wait reserves the next free
// slot (at least interval after the watermark) and Done moves the watermark to
// the completion time, so sequential calls start no earlier than interval
// after the previous one finished.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

// NewThrottle creates a throttle. A non-positive interval disables waiting.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{
		interval: interval,
		now:      time.Now,
	}
}

// Wait blocks until the caller's slot is reached or ctx is done
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	now := t.now()
	slot := now
	if !t.last.IsZero() {
		if next := t.last.Add(t.interval); next.After(now) {
			slot = next
		}
	}
	// Reserve the slot before releasing the lock so concurrent callers queue behind it
	t.last = slot
	t.mu.Unlock()

	delay := slot.Sub(now)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Done records that a call completed. The watermark only moves forward.
func (t *Throttle) Done() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if now := t.now(); now.After(t.last) {
		t.last = now
	}
}

// Interval returns the configured quiescence interval
func (t *Throttle) Interval() time.Duration {
	return t.interval
}
