package api

import (
	"context"
	"fmt"

	"github.com/oscalarm/oscalarm/common"
	"github.com/oscalarm/oscalarm/internal/alarm"
)

// LoadAndSend reloads the settings file, applies it and pushes hour,
// minute and armed to the peer.
func (s *Api) LoadAndSend(ctx context.Context) (*common.AlarmSettings, error) {
	loaded, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	st, err := s.sched.UpdateSettings(func(cur *alarm.Settings) { *cur = loaded })
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScheduler, err)
	}
	if s.onSettings != nil {
		s.onSettings(st)
	}
	res := SettingsToWire(st)
	ctx, cancel := context.WithTimeout(ctx, DefaultSendTimeout)
	defer cancel()
	if err := s.peer.SendSettings(ctx, st); err != nil {
		return &res, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return &res, nil
}
