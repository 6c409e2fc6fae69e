package alarm

import (
	"time"

	"github.com/oscalarm/oscalarm/internal/codec"
)

// Bounds for the timer settings.
const (
	MinMaxSnoozes    = 1
	MaxMaxSnoozes    = 20
	MinRingMinutes   = 1
	MaxRingMinutes   = 60
	MinSnoozeMinutes = 1
	MaxSnoozeMinutes = 30
)

// Settings is the user configuration of the alarm. The JSON field names are
// the on-disk settings file format.
type Settings struct {
	Hour          int  `json:"alarm_hour"`
	Minute        int  `json:"alarm_minute"`
	Armed         bool `json:"alarm_is_on"`
	MaxSnoozes    int  `json:"max_snoozes"`
	RingMinutes   int  `json:"ringing_duration_minutes"`
	SnoozeMinutes int  `json:"snooze_duration_minutes"`
}

// DefaultSettings is used when no settings have been stored.
func DefaultSettings() Settings {
	return Settings{
		Hour:          7,
		Minute:        0,
		Armed:         false,
		MaxSnoozes:    5,
		RingMinutes:   15,
		SnoozeMinutes: 9,
	}
}

// Normalize clamps every field into its valid range.
func (s Settings) Normalize() Settings {
	s.Hour = codec.ClampHour(s.Hour)
	s.Minute = codec.ClampMinute(s.Minute)
	s.MaxSnoozes = codec.Clamp(s.MaxSnoozes, MinMaxSnoozes, MaxMaxSnoozes)
	s.RingMinutes = codec.Clamp(s.RingMinutes, MinRingMinutes, MaxRingMinutes)
	s.SnoozeMinutes = codec.Clamp(s.SnoozeMinutes, MinSnoozeMinutes, MaxSnoozeMinutes)
	return s
}

func (s Settings) RingDuration() time.Duration {
	return time.Duration(s.RingMinutes) * time.Minute
}

func (s Settings) SnoozeDuration() time.Duration {
	return time.Duration(s.SnoozeMinutes) * time.Minute
}
