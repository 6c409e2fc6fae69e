package timer

import (
	"sync"
	"time"
)

// Stats counts what happened to the handles that passed through a Slot.
type Stats struct {
	Installed uint64
	Cancelled uint64
}

// Slot owns at most one active Handle.
type Slot struct {
	mu     sync.Mutex
	active *Handle
	stats  Stats
}

// Arm cancels the active handle, then arms and installs a new one.
func (s *Slot) Arm(c Clock, delay time.Duration, label string, action func()) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	h := Arm(c, delay, label, action)
	s.active = h
	s.stats.Installed++
	return h
}

// Cancel cancels and clears the active handle. It reports whether a pending
// action was prevented from running.
func (s *Slot) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked()
}

func (s *Slot) cancelLocked() bool {
	h := s.active
	s.active = nil
	if h.Cancel() {
		s.stats.Cancelled++
		return true
	}
	return false
}

// Active returns the installed handle, or nil.
func (s *Slot) Active() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Live reports the number of installed handles still pending: 0 or 1.
func (s *Slot) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active.Pending() {
		return 1
	}
	return 0
}

// Stats returns a snapshot of the slot counters.
func (s *Slot) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
