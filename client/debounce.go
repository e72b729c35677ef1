package client

import (
	"sync"
	"time"
)

// DebounceDelay is the quiet period before a search fires.
const DebounceDelay = 300 * time.Millisecond

type timerHandle interface {
	Stop() bool
}

// Debouncer coalesces a typing burst into one trailing call. Each Call
// cancels the pending timer, so only the last value within the quiet
// period fires.
type Debouncer struct {
	delay    time.Duration
	newTimer func(d time.Duration, fn func()) timerHandle

	mu      sync.Mutex
	pending timerHandle
}

func NewDebouncer() *Debouncer {
	return &Debouncer{
		delay: DebounceDelay,
		newTimer: func(d time.Duration, fn func()) timerHandle {
			return time.AfterFunc(d, fn)
		},
	}
}

// Call schedules fn after the quiet period, replacing any pending
// invocation.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
	}
	d.pending = d.newTimer(d.delay, func() {
		d.mu.Lock()
		d.pending = nil
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending invocation, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}
