package api

import "github.com/oscalarm/oscalarm/common"

// Status returns a snapshot of the scheduler.
func (s *Api) Status() *common.StatusResult {
	st := s.sched.Snapshot()
	stats := s.sched.TimerStats()
	return &common.StatusResult{
		Phase:           st.Phase.String(),
		Settings:        SettingsToWire(st.Settings),
		IsRinging:       st.IsRinging,
		SnoozeCount:     st.SnoozeCount,
		SnoozePressed:   st.SnoozePressed,
		StopPressed:     st.StopPressed,
		NextWake:        timePtr(st.NextWake),
		NextTimer:       timePtr(st.NextTimer),
		LastInboundAt:   timePtr(st.LastInboundAt),
		LastOutboundAt:  timePtr(st.LastOutboundAt),
		TimersArmed:     stats.Installed,
		TimersCancelled: stats.Cancelled,
	}
}
