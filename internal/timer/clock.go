package timer

import (
	"sort"
	"sync"
	"time"
)

// Stopper is the part of *time.Timer the package depends on.
type Stopper interface {
	Stop() bool
}

// Clock supplies the current time and schedules delayed functions.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Stopper
}

// RealClock is the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

var _ Clock = RealClock{}

// FakeClock is a manually advanced Clock for tests. Timers never fire on
// their own; Advance runs due timers in deadline order on the calling goroutine.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *FakeClock
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

// NewFakeClock returns a FakeClock reading now.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d < 0 {
		d = 0
	}
	c.seq++
	t := &fakeTimer{clock: c, at: c.now.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward by d, firing every timer that becomes due,
// including timers created by callbacks fired during this call.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()
	c.AdvanceTo(target)
}

// AdvanceTo moves the clock to target (never backwards) firing due timers.
func (c *FakeClock) AdvanceTo(target time.Time) {
	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			if target.After(c.now) {
				c.now = target
			}
			c.compactLocked()
			c.mu.Unlock()
			return
		}
		if next.at.After(c.now) {
			c.now = next.at
		}
		next.fired = true
		c.mu.Unlock()
		next.f()
	}
}

// Set jumps the clock to t without firing anything. Used to simulate a wall
// clock step.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Pending reports the number of timers that have neither fired nor been stopped.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

// Next returns the earliest pending deadline.
func (c *FakeClock) Next() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.nextDueLocked(time.Time{})
	if t == nil {
		return time.Time{}, false
	}
	return t.at, true
}

// nextDueLocked returns the earliest pending timer due at or before limit.
// A zero limit means no limit.
func (c *FakeClock) nextDueLocked(limit time.Time) *fakeTimer {
	var pending []*fakeTimer
	for _, t := range c.timers {
		if t.fired || t.stopped {
			continue
		}
		if !limit.IsZero() && t.at.After(limit) {
			continue
		}
		pending = append(pending, t)
	}
	if len(pending) == 0 {
		return nil
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].at.Equal(pending[j].at) {
			return pending[i].seq < pending[j].seq
		}
		return pending[i].at.Before(pending[j].at)
	})
	return pending[0]
}

func (c *FakeClock) compactLocked() {
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(c.timers); i++ {
		c.timers[i] = nil
	}
	c.timers = live
}

var _ Clock = (*FakeClock)(nil)
