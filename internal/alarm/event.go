package alarm

// EventKind enumerates the inputs of the state machine.
type EventKind int

const (
	EventAlarmFire EventKind = iota
	EventRingingTimeout
	EventSnoozeRequested
	EventStopRequested
	EventSettingsChanged
)

func (k EventKind) String() string {
	switch k {
	case EventAlarmFire:
		return "alarm_fire"
	case EventRingingTimeout:
		return "ringing_timeout"
	case EventSnoozeRequested:
		return "snooze_requested"
	case EventStopRequested:
		return "stop_requested"
	case EventSettingsChanged:
		return "settings_changed"
	default:
		return "unknown"
	}
}

// Event is one input to the scheduler. Settings is only read for
// EventSettingsChanged and replaces the whole configuration.
type Event struct {
	Kind     EventKind
	Settings Settings
}

func Fire() Event           { return Event{Kind: EventAlarmFire} }
func RingingTimeout() Event { return Event{Kind: EventRingingTimeout} }
func Snooze() Event         { return Event{Kind: EventSnoozeRequested} }
func Stop() Event           { return Event{Kind: EventStopRequested} }

func SettingsChanged(s Settings) Event {
	return Event{Kind: EventSettingsChanged, Settings: s}
}
