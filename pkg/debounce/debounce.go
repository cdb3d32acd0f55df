// Package debounce isolates debounce policy from any UI lifecycle: an edit
// schedules work after a quiet period and every new edit cancels the previous
// schedule.
package debounce

import (
	"sync"
	"time"
)

// Handle is a cancellation token for scheduled work.
type Handle interface {
	// Cancel prevents the work from running. It reports false when the work
	// already ran or was cancelled before.
	Cancel() bool
}

// Scheduler runs fn once after delay.
type Scheduler interface {
	Schedule(fn func(), delay time.Duration) Handle
}

type timerHandle struct {
	t *time.Timer
}

func (h timerHandle) Cancel() bool { return h.t.Stop() }

type realScheduler struct{}

func (realScheduler) Schedule(fn func(), delay time.Duration) Handle {
	return timerHandle{t: time.AfterFunc(delay, fn)}
}

// Real is the wall-clock Scheduler backed by time.AfterFunc.
var Real Scheduler = realScheduler{}

// Debouncer delays an action until delay has elapsed without a new Trigger.
// Only the function passed to the last Trigger of a burst runs.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	sched   Scheduler
	handle  Handle
	pending func()
	gen     uint64 // bumped on every Trigger/Flush/Stop to discard stale fires
}

// New creates a Debouncer. A nil scheduler means Real.
func New(delay time.Duration, sched Scheduler) *Debouncer {
	if sched == nil {
		sched = Real
	}
	return &Debouncer{delay: delay, sched: sched}
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration { return d.delay }

// Trigger cancels any pending run and schedules fn after the quiet period.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.handle != nil {
		d.handle.Cancel()
	}
	d.gen++
	gen := d.gen
	d.pending = fn
	d.handle = d.sched.Schedule(func() { d.fire(gen) }, d.delay)
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.handle = nil
	d.mu.Unlock()

	fn()
}

// Flush runs the pending function immediately, if any.
// It reports whether something ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	fn := d.pending
	d.pending = nil
	if d.handle != nil {
		d.handle.Cancel()
		d.handle = nil
	}
	d.gen++
	d.mu.Unlock()

	if fn == nil {
		return false
	}
	fn()
	return true
}

// Stop discards the pending function without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.handle != nil {
		d.handle.Cancel()
		d.handle = nil
	}
	d.pending = nil
	d.gen++
}

// Pending reports whether a run is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}
