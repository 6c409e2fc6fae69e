package cmd

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oscalarm/oscalarm/internal/alarm"
	"github.com/oscalarm/oscalarm/internal/api"
	"github.com/oscalarm/oscalarm/internal/journal"
	"github.com/oscalarm/oscalarm/internal/osc"
	"github.com/oscalarm/oscalarm/internal/server"
	"github.com/oscalarm/oscalarm/internal/settings"
	"github.com/oscalarm/oscalarm/internal/timer"
	"github.com/spf13/afero"
)

const testSecret = "cli-test-secret"

type fakePeer struct {
	mu   sync.Mutex
	sent []string
}

func (p *fakePeer) SendSettings(_ context.Context, s alarm.Settings) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, "settings")
	return nil
}

func (p *fakePeer) SendRaw(_ context.Context, path string, v osc.Value) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, path+"="+v.String())
	return nil
}

func (p *fakePeer) Sent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sent...)
}

// daemonFixture runs the RPC endpoint of a daemon on a loopback port,
// backed by a scheduler on a fake clock.
type daemonFixture struct {
	clock    *timer.FakeClock
	sched    *alarm.Scheduler
	store    *settings.Store
	peer     *fakePeer
	notifier *server.RPCNotifier
	addr     string
}

type fixtureOptions struct {
	noHistory bool
}

func newDaemonFixture(t *testing.T, opts ...fixtureOptions) *daemonFixture {
	t.Helper()
	var o fixtureOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	f := &daemonFixture{
		clock: timer.NewFakeClock(time.Date(2026, time.March, 10, 6, 0, 0, 0, time.UTC)),
		store: settings.NewStore(afero.NewMemMapFs(), "/cfg/settings.json"),
		peer:  &fakePeer{},
	}
	schedOpts := &alarm.Options{Clock: f.clock, Location: time.UTC}
	var hist api.History
	if !o.noHistory {
		j, err := journal.Open(journal.MemoryPath, nil)
		if err != nil {
			t.Fatalf("journal: %v", err)
		}
		t.Cleanup(func() { j.Close() })
		schedOpts.OnTransition = j.Observer()
		hist = j
	}
	f.sched = alarm.New(alarm.DefaultSettings(), schedOpts)
	if err := f.sched.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.sched.Close() })

	deps := &api.Deps{
		Scheduler: f.sched,
		Store:     f.store,
		Peer:      f.peer,
		Version:   "1.2.3",
		Commit:    "abc123",
		BuildType: "test",
	}
	if hist != nil {
		deps.History = hist
	}
	a, err := api.NewApi(deps)
	if err != nil {
		t.Fatal(err)
	}
	rs := server.NewRPCServer(&server.RPCConfig{Secret: testSecret}, a, nil)
	f.notifier = rs.Notifier()
	a.SetOnSettings(f.notifier.PublishSettings)
	ws := server.NewWebServer(nil, "127.0.0.1:0", rs)
	if err := ws.Listen(); err != nil {
		t.Fatalf("listen: %v", err)
	}
	f.addr = ws.Addr().String()
	go ws.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = ws.Shutdown(ctx)
		rs.Close()
	})
	return f
}

// run executes the CLI against the fixture and returns what it printed.
func (f *daemonFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCLI(t, append([]string{"--rpc", f.addr, "--secret", testSecret}, args...)...)
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := stdout
	stdout = buf
	defer func() { stdout = prev }()
	err := Execute(append([]string{"oscalarm"}, args...), BuildArgs{Version: "1.2.3", BuildType: "test"})
	return buf.String(), err
}

func wantReported(t *testing.T, err error) {
	t.Helper()
	if !errors.Is(err, ErrReported) {
		t.Fatalf("got %v, want ErrReported", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
