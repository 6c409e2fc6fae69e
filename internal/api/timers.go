package api

import (
	"context"
	"fmt"

	"github.com/oscalarm/oscalarm/common"
	"github.com/oscalarm/oscalarm/internal/alarm"
)

// Timers returns the snooze limit and phase durations.
func (s *Api) Timers() *common.TimersResult {
	return timersResult(s.sched.Settings())
}

// SetTimers changes the snooze limit and phase durations, clamping them to
// 1-20 snoozes, 1-60 minutes of ringing and 1-30 minutes of snooze.
func (s *Api) SetTimers(ctx context.Context, p *common.SetTimersParams) (*common.TimersResult, error) {
	if p == nil || (p.MaxSnoozes == nil && p.RingMinutes == nil && p.SnoozeMinutes == nil) {
		return nil, fmt.Errorf("%w: nothing to set", ErrInvalidParams)
	}
	st, err := s.sched.UpdateSettings(func(st *alarm.Settings) {
		if p.MaxSnoozes != nil {
			st.MaxSnoozes = *p.MaxSnoozes
		}
		if p.RingMinutes != nil {
			st.RingMinutes = *p.RingMinutes
		}
		if p.SnoozeMinutes != nil {
			st.SnoozeMinutes = *p.SnoozeMinutes
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScheduler, err)
	}
	return timersResult(st), s.persist(ctx, st, false)
}

func timersResult(st alarm.Settings) *common.TimersResult {
	return &common.TimersResult{
		MaxSnoozes:    st.MaxSnoozes,
		RingMinutes:   st.RingMinutes,
		SnoozeMinutes: st.SnoozeMinutes,
	}
}
