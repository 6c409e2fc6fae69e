package alarm

import "errors"

var (
	// ErrClosed is returned by operations on a closed Scheduler.
	ErrClosed = errors.New("alarm scheduler is closed")

	// ErrUnknownEvent is returned for an event kind the machine does not know.
	ErrUnknownEvent = errors.New("unknown scheduler event")

	// ErrPanicked is returned when a transition panicked. The transition is
	// rolled back and the scheduler stays usable.
	ErrPanicked = errors.New("scheduler transition panicked")
)
