// Package clock abstracts the time source used for debouncing and for
// scheduling animation steps.
//
// All callbacks scheduled through a Clock are expected to run on the core's
// single goroutine: the event loop implementation posts them to its inbox and
// Manual fires them synchronously from Advance.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Clock provides the current time and deferred callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a pending callback.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the call stopped it.
	Stop() bool
}

// Manual is a deterministic Clock driven by Advance.
// Safe for concurrent use, but callbacks run on the goroutine calling Advance.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	c     *Manual
	at    time.Time
	seq   int
	fn    func()
	fired bool
}

// NewManual creates a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current manual time.
func (c *Manual) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules fn at Now()+d. A non-positive d fires on the next Advance (even Advance(0)).
func (c *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d < 0 {
		d = 0
	}
	c.seq++
	t := &manualTimer{c: c, at: c.now.Add(d), seq: c.seq, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward by d, firing every timer due within the window in
// deadline order. Timers scheduled by callbacks are fired too if they fall inside it.
func (c *Manual) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDue(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.fired = true
		c.remove(next)
		if next.at.After(c.now) {
			c.now = next.at
		}
		fn := next.fn
		c.mu.Unlock()

		fn()
	}
}

// Pending returns the number of timers that have not fired or been stopped.
func (c *Manual) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *Manual) nextDue(target time.Time) *manualTimer {
	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].at.Equal(c.timers[j].at) {
			return c.timers[i].seq < c.timers[j].seq
		}
		return c.timers[i].at.Before(c.timers[j].at)
	})
	if len(c.timers) == 0 || c.timers[0].at.After(target) {
		return nil
	}
	return c.timers[0]
}

func (c *Manual) remove(t *manualTimer) {
	for i, other := range c.timers {
		if other == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return
		}
	}
}

func (t *manualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.fired {
		return false
	}
	for _, other := range t.c.timers {
		if other == t {
			t.c.remove(t)
			t.fired = true
			return true
		}
	}
	return false
}
