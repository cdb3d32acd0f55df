package debounce

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler driven by Advance instead of the wall clock.
// It is meant for tests.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	m    *Manual
	at   time.Duration
	seq  int
	fn   func()
	done bool
}

func (t *manualTimer) Cancel() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// NewManual returns a Manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// Schedule implements Scheduler.
func (m *Manual) Schedule(fn func(), delay time.Duration) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{m: m, at: m.now + delay, seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward by d and runs every timer that became due,
// in due order. Timers scheduled by those callbacks run too when they fall
// inside the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		var due []*manualTimer
		for _, t := range m.timers {
			if !t.done && t.at <= target {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			m.now = target
			m.compact()
			m.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].at == due[j].at {
				return due[i].seq < due[j].seq
			}
			return due[i].at < due[j].at
		})
		next := due[0]
		next.done = true
		m.now = next.at
		m.mu.Unlock()

		next.fn()
	}
}

// Pending returns the number of timers not yet run or cancelled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.done {
			n++
		}
	}
	return n
}

func (m *Manual) compact() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.done {
			live = append(live, t)
		}
	}
	m.timers = live
}
