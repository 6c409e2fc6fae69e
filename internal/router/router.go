// Package router maps inbound parameter messages to scheduler events and
// settings updates.
package router

import (
	"context"
	"time"

	"github.com/oscalarm/oscalarm/internal/alarm"
	"github.com/oscalarm/oscalarm/internal/codec"
	"github.com/oscalarm/oscalarm/internal/osc"
	"github.com/oscalarm/oscalarm/internal/peer"
	"github.com/oscalarm/oscalarm/pkg/logger"
)

// DefaultEchoTimeout bounds the echo of a clamped value.
const DefaultEchoTimeout = time.Second

// Persister saves settings changed from the network.
type Persister interface {
	Save(alarm.Settings) error
}

// Scheduler is the part of *alarm.Scheduler the router drives.
type Scheduler interface {
	UpdateSettings(fn func(*alarm.Settings)) (alarm.Settings, error)
	Dispatch(ev alarm.Event) error
	IsRinging() bool
	RecordButton(b alarm.Button, pressed bool)
	MarkInbound(t time.Time)
}

// Deps are the collaborators of a Router. Store and OnSettings may be nil.
type Deps struct {
	Scheduler Scheduler
	Peer      *peer.Peer
	Store     Persister
	Logger    logger.Logger
	// OnSettings is called with the new settings after every network update.
	OnSettings func(alarm.Settings)
	Now        func() time.Time
}

type Router struct {
	sched      Scheduler
	peer       *peer.Peer
	store      Persister
	log        logger.Logger
	onSettings func(alarm.Settings)
	now        func() time.Time
}

func New(d *Deps) *Router {
	r := &Router{
		sched:      d.Scheduler,
		peer:       d.Peer,
		store:      d.Store,
		log:        logger.OrNop(d.Logger),
		onSettings: d.OnSettings,
		now:        d.Now,
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Run handles messages until msgs is closed or ctx is done.
func (r *Router) Run(ctx context.Context, msgs <-chan osc.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-msgs:
			if !ok {
				return nil
			}
			r.Handle(ctx, m)
		}
	}
}

// Handle routes a single message. Failures are logged, never returned: one
// bad message must not stop the stream.
func (r *Router) Handle(ctx context.Context, m osc.Message) {
	name, ok := r.peer.Name(m.Path)
	if !ok {
		r.log.Info("ignoring %s", m.Path)
		return
	}
	r.sched.MarkInbound(r.now())

	switch name {
	case peer.AlarmSetHour:
		r.setTime(ctx, m, codec.MaxHour, func(s *alarm.Settings, v int) { s.Hour = v })
	case peer.AlarmSetMinute:
		r.setTime(ctx, m, codec.MaxMinute, func(s *alarm.Settings, v int) { s.Minute = v })
	case peer.AlarmIsOn:
		on, ok := m.Value.AsBool()
		if !ok {
			r.log.Warning("%s wants a bool, got %s", name, m.Value.Kind())
			return
		}
		r.update(func(s *alarm.Settings) { s.Armed = on })
	case peer.SnoozePressed:
		r.press(m, alarm.ButtonSnooze, alarm.Snooze())
	case peer.StopPressed:
		r.press(m, alarm.ButtonStop, alarm.Stop())
	default:
		r.log.Info("unknown parameter %s", name)
	}
}

func (r *Router) setTime(ctx context.Context, m osc.Message, max int, set func(*alarm.Settings, int)) {
	f, ok := m.Value.AsFloat()
	if !ok {
		r.log.Warning("%s wants a float, got %s", m.Path, m.Value.Kind())
		return
	}
	v := codec.FromWire(f, max)
	r.update(func(s *alarm.Settings) { set(s, v) })

	if canon, changed := codec.Canonical(f, max); changed {
		ectx, cancel := context.WithTimeout(ctx, DefaultEchoTimeout)
		defer cancel()
		if err := r.peer.SendRaw(ectx, m.Path, osc.Float(canon)); err != nil {
			r.log.Warning("echo %s: %v", m.Path, err)
		}
	}
}

func (r *Router) update(fn func(*alarm.Settings)) {
	s, err := r.sched.UpdateSettings(fn)
	if err != nil {
		r.log.Error("apply settings: %v", err)
		return
	}
	if r.store != nil {
		if err := r.store.Save(s); err != nil {
			r.log.Warning("save settings: %v", err)
		}
	}
	if r.onSettings != nil {
		r.onSettings(s)
	}
}

// press records the raw flag and forwards ev only for a press during a ring
// cycle.
func (r *Router) press(m osc.Message, b alarm.Button, ev alarm.Event) {
	pressed, ok := m.Value.AsBool()
	if !ok {
		r.log.Warning("%s wants a bool, got %s", m.Path, m.Value.Kind())
		return
	}
	r.sched.RecordButton(b, pressed)
	if !pressed || !r.sched.IsRinging() {
		return
	}
	if err := r.sched.Dispatch(ev); err != nil {
		r.log.Error("%s: %v", ev.Kind, err)
	}
}
