package alert

import (
	"context"
	"sync"
	"time"
)

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

// fakeClock drives time manually. Due timers run synchronously inside
// Advance, outside the clock lock.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Schedule(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return &fakeTimerHandle{clock: c, t: t}
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

// last returns the callback of the most recently scheduled timer.
func (c *fakeClock) last() *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		return nil
	}
	return c.timers[len(c.timers)-1]
}

type fakeTimerHandle struct {
	clock *fakeClock
	t     *fakeTimer
}

func (h *fakeTimerHandle) Stop() bool {
	h.clock.mu.Lock()
	defer h.clock.mu.Unlock()
	if h.t.stopped || h.t.fired {
		return false
	}
	h.t.stopped = true
	return true
}

type recordingEscalator struct {
	mu         sync.Mutex
	pending    []*SessionInfo
	cancelled  []*Session
	dispatched []*Session
	onDispatch func(s *Session)
}

func (e *recordingEscalator) Pending(_ context.Context, s *SessionInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = append(e.pending, s)
}

func (e *recordingEscalator) Cancelled(_ context.Context, s *Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelled = append(e.cancelled, s)
}

func (e *recordingEscalator) Dispatch(_ context.Context, s *Session) {
	e.mu.Lock()
	hook := e.onDispatch
	e.dispatched = append(e.dispatched, s)
	e.mu.Unlock()
	if hook != nil {
		hook(s)
	}
}

func (e *recordingEscalator) counts() (pending, cancelled, dispatched int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending), len(e.cancelled), len(e.dispatched)
}
