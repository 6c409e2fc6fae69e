package alarm

import "fmt"

type armKind int

const (
	armNone armKind = iota
	armWake
	armRing
	armSnooze
)

func (a armKind) label() string {
	switch a {
	case armWake:
		return "wake"
	case armRing:
		return "ring"
	case armSnooze:
		return "snooze"
	default:
		return ""
	}
}

// machine is the pure part of the scheduler. It holds no timers and does no
// I/O; step reports what the caller has to do.
type machine struct {
	settings    Settings
	phase       Phase
	ringing     bool
	snoozeCount int
}

// effect is the outcome of one step.
//
// When cancel is set the active timer must be cancelled. A non-zero arm
// replaces the active timer (which implies cancellation). emit lists the
// firing values to announce, in order.
type effect struct {
	changed bool
	cancel  bool
	arm     armKind
	emit    []bool
	cause   string
}

func newMachine(s Settings) machine {
	return machine{settings: s.Normalize(), phase: PhaseIdle}
}

func (m *machine) step(ev Event) (effect, error) {
	switch ev.Kind {
	case EventSettingsChanged:
		return m.settingsChanged(ev.Settings.Normalize()), nil
	case EventAlarmFire:
		return m.fire(), nil
	case EventRingingTimeout:
		if m.phase != PhaseRinging {
			return effect{}, nil
		}
		return m.snooze("auto_snooze"), nil
	case EventSnoozeRequested:
		if !m.isCycleActive() {
			return effect{}, nil
		}
		return m.snooze("snooze"), nil
	case EventStopRequested:
		if !m.isCycleActive() {
			return effect{}, nil
		}
		return m.stop(), nil
	default:
		return effect{}, fmt.Errorf("%w: %d", ErrUnknownEvent, ev.Kind)
	}
}

func (m *machine) isCycleActive() bool {
	return m.ringing && (m.phase == PhaseRinging || m.phase == PhaseSnoozing)
}

func (m *machine) settingsChanged(s Settings) effect {
	m.settings = s
	switch m.phase {
	case PhaseRinging, PhaseSnoozing:
		if s.Armed {
			// The running cycle keeps its timer; new durations apply from the
			// next phase change.
			return effect{changed: true, cause: "settings"}
		}
		m.ringing = false
		m.snoozeCount = 0
		m.phase = PhaseIdle
		return effect{changed: true, cancel: true, emit: []bool{false}, cause: "disarmed"}
	default:
		if s.Armed {
			m.phase = PhaseWaiting
			return effect{changed: true, arm: armWake, cause: "armed"}
		}
		m.phase = PhaseIdle
		return effect{changed: true, cancel: true, cause: "disarmed"}
	}
}

func (m *machine) fire() effect {
	switch m.phase {
	case PhaseWaiting:
		m.snoozeCount = 0
		m.ringing = true
		m.phase = PhaseRinging
		return effect{changed: true, arm: armRing, emit: []bool{true}, cause: "fire"}
	case PhaseSnoozing:
		m.ringing = true
		m.phase = PhaseRinging
		return effect{changed: true, arm: armRing, emit: []bool{true}, cause: "refire"}
	default:
		return effect{}
	}
}

func (m *machine) snooze(cause string) effect {
	m.snoozeCount++
	if m.snoozeCount > m.settings.MaxSnoozes {
		m.snoozeCount = 0
		m.ringing = false
		eff := effect{changed: true, emit: []bool{false}, cause: "exhausted"}
		m.rest(&eff)
		return eff
	}
	m.phase = PhaseSnoozing
	return effect{changed: true, arm: armSnooze, emit: []bool{false}, cause: cause}
}

func (m *machine) stop() effect {
	m.snoozeCount = 0
	m.ringing = false
	eff := effect{changed: true, emit: []bool{false}, cause: "stop"}
	m.rest(&eff)
	return eff
}

// rest leaves the cycle: wait for the next wake if armed, idle otherwise.
func (m *machine) rest(eff *effect) {
	if m.settings.Armed {
		m.phase = PhaseWaiting
		eff.arm = armWake
		return
	}
	m.phase = PhaseIdle
	eff.cancel = true
}
