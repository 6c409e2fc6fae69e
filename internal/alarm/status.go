package alarm

import "time"

// Phase is the position of the scheduler in the alarm cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseWaiting
	PhaseRinging
	PhaseSnoozing
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseWaiting:
		return "waiting"
	case PhaseRinging:
		return "ringing"
	case PhaseSnoozing:
		return "snoozing"
	default:
		return "unknown"
	}
}

// Button identifies one of the two remote press flags.
type Button int

const (
	ButtonSnooze Button = iota
	ButtonStop
)

func (b Button) String() string {
	if b == ButtonStop {
		return "stop"
	}
	return "snooze"
}

// Status is a consistent snapshot of the scheduler.
type Status struct {
	Phase    Phase
	Settings Settings

	// IsRinging stays true across snooze pauses until the cycle ends.
	IsRinging   bool
	SnoozeCount int

	SnoozePressed bool
	StopPressed   bool

	// NextWake is the configured wake instant while Waiting, zero otherwise.
	NextWake time.Time
	// NextTimer is the deadline of the pending ring or snooze timer.
	NextTimer time.Time

	LastInboundAt  time.Time
	LastOutboundAt time.Time
}

// Transition describes one applied state change. Cause is a short label
// such as "fire", "snooze" or "stop".
type Transition struct {
	At          time.Time
	From        Phase
	To          Phase
	Event       EventKind
	Cause       string
	SnoozeCount int
	Status      Status
}
