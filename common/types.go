package common

import "time"

// EmptyResult is a placeholder for methods that return no data.
type EmptyResult struct{}

// VersionResult is the response for system.getVersion.
type VersionResult struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildType string `json:"buildType,omitempty"`
}

// AlarmSettings mirrors the persisted settings on the wire.
type AlarmSettings struct {
	Hour          int  `json:"hour"`
	Minute        int  `json:"minute"`
	Armed         bool `json:"armed"`
	MaxSnoozes    int  `json:"maxSnoozes"`
	RingMinutes   int  `json:"ringMinutes"`
	SnoozeMinutes int  `json:"snoozeMinutes"`
}

// StatusResult is the response for alarm.status.
type StatusResult struct {
	Phase           string        `json:"phase"`
	Settings        AlarmSettings `json:"settings"`
	IsRinging       bool          `json:"isRinging"`
	SnoozeCount     int           `json:"snoozeCount"`
	SnoozePressed   bool          `json:"snoozePressed"`
	StopPressed     bool          `json:"stopPressed"`
	NextWake        *time.Time    `json:"nextWake,omitempty"`
	NextTimer       *time.Time    `json:"nextTimer,omitempty"`
	LastInboundAt   *time.Time    `json:"lastInboundAt,omitempty"`
	LastOutboundAt  *time.Time    `json:"lastOutboundAt,omitempty"`
	TimersArmed     uint64        `json:"timersArmed"`
	TimersCancelled uint64        `json:"timersCancelled"`
}

// SetAlarmParams is the input for alarm.set. Nil fields are left unchanged.
type SetAlarmParams struct {
	Hour   *int  `json:"hour,omitempty"`
	Minute *int  `json:"minute,omitempty"`
	Armed  *bool `json:"armed,omitempty"`
}

// SetTimersParams is the input for timers.set. Nil fields are left unchanged.
type SetTimersParams struct {
	MaxSnoozes    *int `json:"maxSnoozes,omitempty"`
	RingMinutes   *int `json:"ringMinutes,omitempty"`
	SnoozeMinutes *int `json:"snoozeMinutes,omitempty"`
}

// TimersResult is the response for timers.get and timers.set.
type TimersResult struct {
	MaxSnoozes    int `json:"maxSnoozes"`
	RingMinutes   int `json:"ringMinutes"`
	SnoozeMinutes int `json:"snoozeMinutes"`
}

// SendParams is the input for osc.send. Type is one of "bool", "float",
// "int", "string"; when empty the value is inferred from its text.
type SendParams struct {
	Path  string `json:"path"`
	Value string `json:"value"`
	Type  string `json:"type,omitempty"`
}

// HistoryParams is the input for history.list.
type HistoryParams struct {
	Limit int `json:"limit,omitempty"`
}

// HistoryEntry is one journal entry.
type HistoryEntry struct {
	CycleID     string    `json:"cycleId,omitempty"`
	At          time.Time `json:"at"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Event       string    `json:"event"`
	Cause       string    `json:"cause"`
	SnoozeCount int       `json:"snoozeCount"`
}

// HistoryResult is the response for history.list.
type HistoryResult struct {
	Entries []HistoryEntry `json:"entries"`
}

// FiringNotification is pushed as alarm.firing.
type FiringNotification struct {
	Firing bool      `json:"firing"`
	At     time.Time `json:"at"`
}

// PhaseNotification is pushed as alarm.phase.
type PhaseNotification struct {
	From        string    `json:"from"`
	To          string    `json:"to"`
	Cause       string    `json:"cause"`
	SnoozeCount int       `json:"snoozeCount"`
	At          time.Time `json:"at"`
}
