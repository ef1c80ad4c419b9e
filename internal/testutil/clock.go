package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant returned by a StepClock created with NewStepClock.
var Epoch = time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC)

// StepClock is a deterministic wall clock for tests.
//
// Every call to Now advances the clock by a fixed step before returning, so
// two successive writes always get strictly increasing timestamps. Set pins
// the clock to an explicit instant (e.g. to test age rules).
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewStepClock creates a clock starting at Epoch that advances one second per call.
func NewStepClock() *StepClock {
	return &StepClock{now: Epoch.Add(-time.Second), step: time.Second}
}

// Now advances the clock and returns the new instant.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

// Peek returns the last instant handed out without advancing.
func (c *StepClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set pins the clock so that the next Now returns t.
func (c *StepClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.Add(-c.step)
}
