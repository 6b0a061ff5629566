package scheduler

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of Trigger calls into a single deferred run of
// fn after a quiet interval. Only one timer is pending at a time; triggers
// that arrive while a run is already scheduled are absorbed by it.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func()
	timer *time.Timer
}

// NewDebouncer builds a debouncer around fn.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	if delay <= 0 {
		panic("debounce delay must be positive")
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger schedules a run unless one is already pending.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		return
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		d.timer = nil
		d.mu.Unlock()
		d.fn()
	})
}

// Flush cancels any pending timer and runs fn immediately if one was pending.
// Used at shutdown so a burst just before exit is not lost.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	pending := d.timer != nil
	if pending {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	if pending {
		d.fn()
	}
}

// Stop cancels any pending run without executing it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
