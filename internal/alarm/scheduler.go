package alarm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oscalarm/oscalarm/internal/timer"
	"github.com/oscalarm/oscalarm/pkg/logger"
)

const (
	// DefaultSendTimeout bounds each outbound firing notification.
	DefaultSendTimeout = 2 * time.Second
	// DefaultWakeCheck caps a single wake sleep so wall clock steps
	// (NTP, DST, suspend) are noticed within this interval.
	DefaultWakeCheck = time.Minute
)

// Notifier announces the firing flag to the remote peer.
type Notifier interface {
	NotifyFiring(ctx context.Context, firing bool) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, firing bool) error

func (f NotifierFunc) NotifyFiring(ctx context.Context, firing bool) error { return f(ctx, firing) }

// Options configures a Scheduler. Every field is optional.
type Options struct {
	Clock    timer.Clock
	Logger   logger.Logger
	Notifier Notifier
	// OnTransition runs after the notifications of a transition were sent.
	// Calls are sequential and in transition order. It may call back into
	// the Scheduler.
	OnTransition func(Transition)
	Location     *time.Location
	SendTimeout  time.Duration
	WakeCheck    time.Duration
}

type delivery struct {
	emit []bool
	tr   Transition
}

// Scheduler owns the alarm state and its single active timer.
type Scheduler struct {
	clock        timer.Clock
	log          logger.Logger
	notifier     Notifier
	onTransition func(Transition)
	loc          *time.Location
	sendTimeout  time.Duration
	wakeCheck    time.Duration

	// mu guards everything below, including the slot contents: a timer is
	// only installed or cancelled while mu is held.
	mu            sync.Mutex
	m             machine
	slot          timer.Slot
	gen           uint64
	wakeAt        time.Time
	snoozePressed bool
	stopPressed   bool
	lastIn        time.Time
	lastOut       time.Time
	closed        bool

	outbox   []delivery
	draining bool
}

// New builds a Scheduler in the idle phase. Call Start to arm it.
func New(s Settings, opts *Options) *Scheduler {
	if opts == nil {
		opts = &Options{}
	}
	sc := &Scheduler{
		clock:        opts.Clock,
		log:          logger.OrNop(opts.Logger),
		notifier:     opts.Notifier,
		onTransition: opts.OnTransition,
		loc:          opts.Location,
		sendTimeout:  opts.SendTimeout,
		wakeCheck:    opts.WakeCheck,
		m:            newMachine(s),
	}
	if sc.clock == nil {
		sc.clock = timer.RealClock{}
	}
	if sc.loc == nil {
		sc.loc = time.Local
	}
	if sc.sendTimeout <= 0 {
		sc.sendTimeout = DefaultSendTimeout
	}
	if sc.wakeCheck <= 0 {
		sc.wakeCheck = DefaultWakeCheck
	}
	return sc
}

// Start applies the initial settings, arming the wake timer when armed.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	return s.commitLocked(SettingsChanged(s.m.settings))
}

// Dispatch applies ev and arms or cancels timers as the transition requires.
func (s *Scheduler) Dispatch(ev Event) error {
	return s.dispatch(ev, 0)
}

// UpdateSettings edits a copy of the current settings with fn and applies
// the normalized result as one SettingsChanged transition.
func (s *Scheduler) UpdateSettings(fn func(*Settings)) (Settings, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Settings{}, ErrClosed
	}
	next := s.m.settings
	fn(&next)
	next = next.Normalize()
	return next, s.commitLocked(SettingsChanged(next))
}

// Settings returns the current settings.
func (s *Scheduler) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.settings
}

// IsRinging reports whether a ring cycle is active, snooze pauses included.
func (s *Scheduler) IsRinging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.ringing
}

// Snapshot returns a consistent copy of the state.
func (s *Scheduler) Snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// RecordButton stores the raw remote press flag. It never changes phase.
func (s *Scheduler) RecordButton(b Button, pressed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch b {
	case ButtonSnooze:
		s.snoozePressed = pressed
	case ButtonStop:
		s.stopPressed = pressed
	}
}

// MarkInbound records the time of the last received message.
func (s *Scheduler) MarkInbound(t time.Time) {
	s.mu.Lock()
	s.lastIn = t
	s.mu.Unlock()
}

// MarkOutbound records the time of the last sent message.
func (s *Scheduler) MarkOutbound(t time.Time) {
	s.mu.Lock()
	s.lastOut = t
	s.mu.Unlock()
}

// TimerStats reports how many timers were installed and cancelled.
func (s *Scheduler) TimerStats() timer.Stats {
	return s.slot.Stats()
}

// LiveTimers reports the number of pending timers: 0 or 1.
func (s *Scheduler) LiveTimers() int {
	return s.slot.Live()
}

// Close cancels the active timer. Later calls to Dispatch return ErrClosed.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.gen++
	s.slot.Cancel()
	s.wakeAt = time.Time{}
	return nil
}

func (s *Scheduler) dispatch(ev Event, gen uint64) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if gen != 0 && gen != s.gen {
		s.mu.Unlock()
		s.log.Info("dropped stale %s", ev.Kind)
		return nil
	}
	return s.commitLocked(ev)
}

// commitLocked steps the machine and hands the result to the outbox. It is
// called with mu held and returns with mu released.
func (s *Scheduler) commitLocked(ev Event) error {
	d, err := s.stepLocked(ev)
	if d != nil {
		s.outbox = append(s.outbox, *d)
	}
	s.drainLocked()
	return err
}

func (s *Scheduler) stepLocked(ev Event) (d *delivery, err error) {
	prev := s.m
	prevGen, prevWake := s.gen, s.wakeAt
	var prevDeadline time.Time
	if h := s.slot.Active(); h.Pending() {
		prevDeadline = h.Deadline()
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("%s transition panicked: %v", ev.Kind, r)
			s.m = prev
			if s.gen != prevGen {
				s.restoreTimerLocked(prevWake, prevDeadline)
			}
			d, err = nil, fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	eff, err := s.m.step(ev)
	if err != nil {
		return nil, err
	}
	if !eff.changed {
		return nil, nil
	}
	now := s.clock.Now()
	s.applyLocked(eff, now)
	s.log.Info("%s -> %s (%s, snoozes %d)", prev.phase, s.m.phase, eff.cause, s.m.snoozeCount)
	return &delivery{
		emit: eff.emit,
		tr: Transition{
			At:          now,
			From:        prev.phase,
			To:          s.m.phase,
			Event:       ev.Kind,
			Cause:       eff.cause,
			SnoozeCount: s.m.snoozeCount,
			Status:      s.statusLocked(),
		},
	}, nil
}

func (s *Scheduler) applyLocked(eff effect, now time.Time) {
	if eff.arm == armNone {
		if eff.cancel {
			s.gen++
			s.slot.Cancel()
			s.wakeAt = time.Time{}
		}
		return
	}
	s.gen++
	gen := s.gen
	switch eff.arm {
	case armWake:
		st := s.m.settings
		s.wakeAt = NextWake(now.In(s.loc), st.Hour, st.Minute)
		s.armWakeLocked(gen, now)
	case armRing:
		s.wakeAt = time.Time{}
		s.armPhaseLocked(armRing, s.m.settings.RingDuration(), gen)
	case armSnooze:
		s.wakeAt = time.Time{}
		s.armPhaseLocked(armSnooze, s.m.settings.SnoozeDuration(), gen)
	}
}

// armPhaseLocked installs the ring or snooze timer for generation gen.
func (s *Scheduler) armPhaseLocked(kind armKind, delay time.Duration, gen uint64) {
	ev := Fire()
	if kind == armRing {
		ev = RingingTimeout()
	}
	s.slot.Arm(s.clock, delay, kind.label(), func() {
		s.onTimer(ev, gen)
	})
}

// restoreTimerLocked undoes the timer side of a transition that panicked
// after touching the slot. Anything armed for the abandoned phase is
// invalidated and the restored phase gets its timer back with the deadline
// it had before.
func (s *Scheduler) restoreTimerLocked(wakeAt, deadline time.Time) {
	s.gen++
	s.slot.Cancel()
	s.wakeAt = wakeAt
	now := s.clock.Now()
	switch s.m.phase {
	case PhaseWaiting:
		if !s.wakeAt.IsZero() {
			s.armWakeLocked(s.gen, now)
		}
	case PhaseRinging, PhaseSnoozing:
		if deadline.IsZero() {
			return
		}
		kind := armSnooze
		if s.m.phase == PhaseRinging {
			kind = armRing
		}
		delay := deadline.Sub(now)
		if delay < 0 {
			delay = 0
		}
		s.armPhaseLocked(kind, delay, s.gen)
	}
}

func (s *Scheduler) armWakeLocked(gen uint64, now time.Time) {
	delay := s.wakeAt.Sub(now)
	if delay > s.wakeCheck {
		delay = s.wakeCheck
	}
	s.slot.Arm(s.clock, delay, armWake.label(), func() {
		s.onWakeCheck(gen)
	})
}

func (s *Scheduler) onTimer(ev Event, gen uint64) {
	defer s.recoverTimer(ev.Kind.String())
	if err := s.dispatch(ev, gen); err != nil && !errors.Is(err, ErrClosed) {
		s.log.Error("timer %s: %v", ev.Kind, err)
	}
}

// onWakeCheck fires the alarm once the wall clock reached the wake instant
// and otherwise sleeps again.
func (s *Scheduler) onWakeCheck(gen uint64) {
	defer s.recoverTimer("wake")
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	now := s.clock.Now()
	if now.Before(s.wakeAt) {
		s.armWakeLocked(gen, now)
		s.mu.Unlock()
		return
	}
	if err := s.commitLocked(Fire()); err != nil {
		s.log.Error("wake: %v", err)
	}
}

func (s *Scheduler) recoverTimer(label string) {
	if r := recover(); r != nil {
		s.log.Error("%s timer panicked: %v", label, r)
	}
}

// drainLocked delivers queued transitions in order. Only one goroutine
// drains at a time and it never holds mu while sending. Called with mu
// held, returns with mu released.
func (s *Scheduler) drainLocked() {
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for len(s.outbox) > 0 {
		d := s.outbox[0]
		s.outbox[0] = delivery{}
		s.outbox = s.outbox[1:]
		s.mu.Unlock()
		s.deliver(d)
		s.mu.Lock()
	}
	s.outbox = nil
	s.draining = false
	s.mu.Unlock()
}

func (s *Scheduler) deliver(d delivery) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("delivery panicked: %v", r)
		}
	}()
	if s.notifier != nil {
		for _, v := range d.emit {
			ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
			err := s.notifier.NotifyFiring(ctx, v)
			cancel()
			if err != nil {
				s.log.Warning("notify firing=%t: %v", v, err)
			}
		}
	}
	if s.onTransition != nil {
		s.onTransition(d.tr)
	}
}

func (s *Scheduler) statusLocked() Status {
	st := Status{
		Phase:          s.m.phase,
		Settings:       s.m.settings,
		IsRinging:      s.m.ringing,
		SnoozeCount:    s.m.snoozeCount,
		SnoozePressed:  s.snoozePressed,
		StopPressed:    s.stopPressed,
		LastInboundAt:  s.lastIn,
		LastOutboundAt: s.lastOut,
	}
	if s.m.phase == PhaseWaiting {
		st.NextWake = s.wakeAt
	}
	if h := s.slot.Active(); h.Pending() && h.Label() != armWake.label() {
		st.NextTimer = h.Deadline()
	}
	return st
}
