package timer

import (
	"sync/atomic"
	"time"
)

const (
	statePending int32 = iota
	stateFired
	stateCancelled
)

// Handle is one outstanding delayed action.
type Handle struct {
	label    string
	deadline time.Time
	state    atomic.Int32
	stop     Stopper
}

// Arm schedules action to run after delay on c and returns its handle.
func Arm(c Clock, delay time.Duration, label string, action func()) *Handle {
	h := &Handle{label: label, deadline: c.Now().Add(delay)}
	h.stop = c.AfterFunc(delay, func() {
		if !h.state.CompareAndSwap(statePending, stateFired) {
			return
		}
		action()
	})
	return h
}

// Cancel requests that the action not run. It reports whether the request
// won the race: false means the action already started or the handle was
// already cancelled.
func (h *Handle) Cancel() bool {
	if h == nil {
		return false
	}
	if !h.state.CompareAndSwap(statePending, stateCancelled) {
		return false
	}
	h.stop.Stop()
	return true
}

// Pending reports whether the action has neither started nor been cancelled.
func (h *Handle) Pending() bool {
	return h != nil && h.state.Load() == statePending
}

// Fired reports whether the action has started.
func (h *Handle) Fired() bool {
	return h != nil && h.state.Load() == stateFired
}

func (h *Handle) Label() string       { return h.label }
func (h *Handle) Deadline() time.Time { return h.deadline }
