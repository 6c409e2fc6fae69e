package api

import (
	"context"
	"fmt"

	"github.com/oscalarm/oscalarm/common"
	"github.com/oscalarm/oscalarm/internal/alarm"
)

// SetAlarm changes hour, minute and armed. Values are clamped, never
// rejected. The new settings are saved and pushed to the peer; on a save or
// push failure the returned settings are still in effect.
func (s *Api) SetAlarm(ctx context.Context, p *common.SetAlarmParams) (*common.AlarmSettings, error) {
	if p == nil || (p.Hour == nil && p.Minute == nil && p.Armed == nil) {
		return nil, fmt.Errorf("%w: nothing to set", ErrInvalidParams)
	}
	st, err := s.sched.UpdateSettings(func(st *alarm.Settings) {
		if p.Hour != nil {
			st.Hour = *p.Hour
		}
		if p.Minute != nil {
			st.Minute = *p.Minute
		}
		if p.Armed != nil {
			st.Armed = *p.Armed
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScheduler, err)
	}
	res := SettingsToWire(st)
	return &res, s.persist(ctx, st, true)
}
