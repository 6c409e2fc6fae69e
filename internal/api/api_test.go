package api

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oscalarm/oscalarm/common"
	"github.com/oscalarm/oscalarm/internal/alarm"
	"github.com/oscalarm/oscalarm/internal/journal"
	"github.com/oscalarm/oscalarm/internal/osc"
	"github.com/oscalarm/oscalarm/internal/timer"
)

var sixAM = time.Date(2026, time.March, 10, 6, 0, 0, 0, time.UTC)

type memStore struct {
	mu      sync.Mutex
	current alarm.Settings
	saves   int
	saveErr error
	loadErr error
}

func (m *memStore) Load() (alarm.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, m.loadErr
}

func (m *memStore) Save(s alarm.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.current = s
	return nil
}

type sent struct {
	path string
	v    osc.Value
}

type fakePeer struct {
	mu       sync.Mutex
	settings []alarm.Settings
	raw      []sent
	err      error
}

func (p *fakePeer) SendSettings(_ context.Context, s alarm.Settings) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = append(p.settings, s)
	return p.err
}

func (p *fakePeer) SendRaw(_ context.Context, path string, v osc.Value) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raw = append(p.raw, sent{path, v})
	return p.err
}

type fakeHistory struct {
	entries []journal.Entry
	limit   int
	err     error
}

func (h *fakeHistory) Recent(_ context.Context, limit int) ([]journal.Entry, error) {
	h.limit = limit
	return h.entries, h.err
}

type fixture struct {
	clock   *timer.FakeClock
	sched   *alarm.Scheduler
	store   *memStore
	peer    *fakePeer
	history *fakeHistory
	api     *Api
	changes []alarm.Settings
}

func newFixture(t *testing.T, s alarm.Settings) *fixture {
	t.Helper()
	f := &fixture{
		clock:   timer.NewFakeClock(sixAM),
		store:   &memStore{current: s},
		peer:    &fakePeer{},
		history: &fakeHistory{},
	}
	f.sched = alarm.New(s, &alarm.Options{Clock: f.clock, Location: time.UTC})
	if err := f.sched.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.sched.Close() })
	api, err := NewApi(&Deps{
		Scheduler:  f.sched,
		Store:      f.store,
		Peer:       f.peer,
		History:    f.history,
		OnSettings: func(s alarm.Settings) { f.changes = append(f.changes, s) },
		Version:    "1.2.3",
		Commit:     "abc",
	})
	if err != nil {
		t.Fatalf("NewApi: %v", err)
	}
	f.api = api
	return f
}

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }

func TestNewApiRequiresDeps(t *testing.T) {
	if _, err := NewApi(&Deps{}); err == nil {
		t.Fatal("expected error for missing deps")
	}
}

func TestSetAlarm(t *testing.T) {
	f := newFixture(t, alarm.DefaultSettings())
	got, err := f.api.SetAlarm(context.Background(), &common.SetAlarmParams{
		Hour:   intp(6),
		Minute: intp(30),
		Armed:  boolp(true),
	})
	if err != nil {
		t.Fatalf("SetAlarm: %v", err)
	}
	if got.Hour != 6 || got.Minute != 30 || !got.Armed {
		t.Fatalf("got %+v", got)
	}
	st := f.api.Status()
	if st.Phase != "waiting" || st.NextWake == nil {
		t.Fatalf("status = %+v", st)
	}
	if want := time.Date(2026, time.March, 10, 6, 30, 0, 0, time.UTC); !st.NextWake.Equal(want) {
		t.Fatalf("next wake = %v, want %v", st.NextWake, want)
	}
	if f.store.current.Hour != 6 || !f.store.current.Armed {
		t.Fatalf("saved = %+v", f.store.current)
	}
	if len(f.peer.settings) != 1 || len(f.changes) != 1 {
		t.Fatalf("pushes=%d changes=%d, want 1 and 1", len(f.peer.settings), len(f.changes))
	}
}

func TestSetAlarmClampsAndKeepsOtherFields(t *testing.T) {
	f := newFixture(t, alarm.DefaultSettings())
	got, err := f.api.SetAlarm(context.Background(), &common.SetAlarmParams{Hour: intp(42)})
	if err != nil {
		t.Fatalf("SetAlarm: %v", err)
	}
	if got.Hour != 23 || got.Minute != 0 || got.Armed || got.MaxSnoozes != 5 {
		t.Fatalf("got %+v", got)
	}
}

func TestSetAlarmEmpty(t *testing.T) {
	f := newFixture(t, alarm.DefaultSettings())
	if _, err := f.api.SetAlarm(context.Background(), &common.SetAlarmParams{}); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("got %v, want ErrInvalidParams", err)
	}
}

func TestSetAlarmSaveFailureKeepsState(t *testing.T) {
	f := newFixture(t, alarm.DefaultSettings())
	f.store.saveErr = errors.New("read-only")
	got, err := f.api.SetAlarm(context.Background(), &common.SetAlarmParams{Armed: boolp(true)})
	if !errors.Is(err, ErrPersist) {
		t.Fatalf("got %v, want ErrPersist", err)
	}
	if got == nil || !got.Armed {
		t.Fatalf("result = %+v", got)
	}
	if !f.sched.Settings().Armed {
		t.Fatal("in-memory state rolled back")
	}
}

func TestSetAlarmPushFailure(t *testing.T) {
	f := newFixture(t, alarm.DefaultSettings())
	f.peer.err = errors.New("unreachable")
	_, err := f.api.SetAlarm(context.Background(), &common.SetAlarmParams{Minute: intp(5)})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("got %v, want ErrTransport", err)
	}
	if f.store.current.Minute != 5 {
		t.Fatal("save skipped after push failure")
	}
}

func TestSnoozeAndStop(t *testing.T) {
	s := alarm.DefaultSettings()
	s.Armed = true
	f := newFixture(t, s)

	// Outside a cycle both are no-ops.
	if err := f.api.Snooze(); err != nil {
		t.Fatalf("Snooze: %v", err)
	}
	if err := f.api.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if st := f.api.Status(); st.Phase != "waiting" {
		t.Fatalf("phase = %s", st.Phase)
	}

	f.clock.AdvanceTo(time.Date(2026, time.March, 10, 7, 0, 0, 0, time.UTC))
	f.api.Snooze()
	if st := f.api.Status(); st.Phase != "snoozing" || st.SnoozeCount != 1 || st.NextTimer == nil {
		t.Fatalf("status = %+v", st)
	}
	f.api.Stop()
	if st := f.api.Status(); st.Phase != "waiting" || st.IsRinging {
		t.Fatalf("status = %+v", st)
	}

	f.sched.Close()
	if err := f.api.Stop(); !errors.Is(err, ErrScheduler) || !errors.Is(err, alarm.ErrClosed) {
		t.Fatalf("got %v, want ErrScheduler wrapping ErrClosed", err)
	}
}

func TestTimers(t *testing.T) {
	f := newFixture(t, alarm.DefaultSettings())
	if got := f.api.Timers(); got.MaxSnoozes != 5 || got.RingMinutes != 15 || got.SnoozeMinutes != 9 {
		t.Fatalf("defaults = %+v", got)
	}
	got, err := f.api.SetTimers(context.Background(), &common.SetTimersParams{
		MaxSnoozes:    intp(50),
		RingMinutes:   intp(0),
		SnoozeMinutes: intp(10),
	})
	if err != nil {
		t.Fatalf("SetTimers: %v", err)
	}
	want := common.TimersResult{MaxSnoozes: 20, RingMinutes: 1, SnoozeMinutes: 10}
	if *got != want {
		t.Fatalf("got %+v, want %+v", *got, want)
	}
	if f.store.current.MaxSnoozes != 20 {
		t.Fatalf("saved = %+v", f.store.current)
	}
	if len(f.peer.settings) != 0 {
		t.Fatal("timer change pushed to peer")
	}
	if _, err := f.api.SetTimers(context.Background(), nil); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("got %v, want ErrInvalidParams", err)
	}
}

func TestSendParameter(t *testing.T) {
	tests := []struct {
		name     string
		p        common.SendParams
		wantKind osc.Kind
		wantErr  error
	}{
		{"inferred bool", common.SendParams{Path: "AlarmIsOn", Value: "true"}, osc.KindBool, nil},
		{"inferred float", common.SendParams{Path: "/x", Value: "0.07"}, osc.KindFloat, nil},
		{"typed int", common.SendParams{Path: "/x", Value: "3", Type: "int"}, osc.KindInt, nil},
		{"typed string", common.SendParams{Path: "/x", Value: "3", Type: "string"}, osc.KindString, nil},
		{"typed float", common.SendParams{Path: "/x", Value: "1", Type: "float"}, osc.KindFloat, nil},
		{"bad float", common.SendParams{Path: "/x", Value: "nope", Type: "float"}, 0, ErrInvalidParams},
		{"bad type", common.SendParams{Path: "/x", Value: "1", Type: "blob"}, 0, ErrInvalidParams},
		{"missing path", common.SendParams{Value: "1"}, 0, ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, alarm.DefaultSettings())
			err := f.api.SendParameter(context.Background(), &tt.p)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SendParameter: %v", err)
			}
			if len(f.peer.raw) != 1 || f.peer.raw[0].path != tt.p.Path || f.peer.raw[0].v.Kind() != tt.wantKind {
				t.Fatalf("sent %+v", f.peer.raw)
			}
		})
	}
}

func TestSendParameterTransportError(t *testing.T) {
	f := newFixture(t, alarm.DefaultSettings())
	f.peer.err = errors.New("down")
	err := f.api.SendParameter(context.Background(), &common.SendParams{Path: "/x", Value: "1"})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("got %v, want ErrTransport", err)
	}
}

func TestLoadAndSend(t *testing.T) {
	f := newFixture(t, alarm.DefaultSettings())
	f.store.current = alarm.Settings{Hour: 5, Minute: 15, Armed: true, MaxSnoozes: 2, RingMinutes: 3, SnoozeMinutes: 4}

	got, err := f.api.LoadAndSend(context.Background())
	if err != nil {
		t.Fatalf("LoadAndSend: %v", err)
	}
	if got.Hour != 5 || got.MaxSnoozes != 2 {
		t.Fatalf("got %+v", got)
	}
	if s := f.sched.Settings(); s != f.store.current {
		t.Fatalf("scheduler = %+v, want %+v", s, f.store.current)
	}
	if len(f.peer.settings) != 1 || len(f.changes) != 1 {
		t.Fatalf("pushes=%d changes=%d", len(f.peer.settings), len(f.changes))
	}

	f.store.loadErr = errors.New("corrupt")
	if _, err := f.api.LoadAndSend(context.Background()); !errors.Is(err, ErrPersist) {
		t.Fatalf("got %v, want ErrPersist", err)
	}
}

func TestHistory(t *testing.T) {
	f := newFixture(t, alarm.DefaultSettings())
	f.history.entries = []journal.Entry{
		{ID: 2, CycleID: "c", At: sixAM, From: "ringing", To: "waiting", Event: "stop_requested", Cause: "stop"},
		{ID: 1, CycleID: "c", At: sixAM, From: "waiting", To: "ringing", Event: "alarm_fire", Cause: "fire"},
	}
	got, err := f.api.History(context.Background(), 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got.Entries) != 2 || got.Entries[0].Cause != "stop" {
		t.Fatalf("got %+v", got.Entries)
	}
	if f.history.limit != 20 {
		t.Fatalf("limit = %d, want 20", f.history.limit)
	}
	f.api.History(context.Background(), 10_000)
	if f.history.limit != MaxHistory {
		t.Fatalf("limit = %d, want %d", f.history.limit, MaxHistory)
	}

	f.api.history = nil
	got, err = f.api.History(context.Background(), 5)
	if err != nil || got.Entries == nil || len(got.Entries) != 0 {
		t.Fatalf("without journal: %+v, %v", got, err)
	}
}

func TestVersion(t *testing.T) {
	f := newFixture(t, alarm.DefaultSettings())
	v := f.api.Version()
	if v.Version != "1.2.3" || v.Commit != "abc" {
		t.Fatalf("got %+v", v)
	}
}

func TestStatusTimerCounters(t *testing.T) {
	s := alarm.DefaultSettings()
	s.Armed = true
	f := newFixture(t, s)
	f.api.SetAlarm(context.Background(), &common.SetAlarmParams{Hour: intp(8)})
	st := f.api.Status()
	if st.TimersArmed != 2 || st.TimersCancelled != 1 {
		t.Fatalf("counters = %d/%d, want 2/1", st.TimersArmed, st.TimersCancelled)
	}
	if st.LastInboundAt != nil {
		t.Fatal("inbound time set without traffic")
	}
}
