package api

import (
	"fmt"

	"github.com/oscalarm/oscalarm/internal/alarm"
)

// Snooze requests a snooze. Outside a ring cycle it has no effect.
func (s *Api) Snooze() error {
	return s.dispatch(alarm.Snooze())
}

// Stop ends the ring cycle. Outside a ring cycle it has no effect.
func (s *Api) Stop() error {
	return s.dispatch(alarm.Stop())
}

func (s *Api) dispatch(ev alarm.Event) error {
	if err := s.sched.Dispatch(ev); err != nil {
		return fmt.Errorf("%w: %w", ErrScheduler, err)
	}
	return nil
}
