// Package daemon provides the core daemon runner for oscalarm.
// It wires the alarm scheduler to the parameter transport, the settings
// store, the journal and the RPC endpoint, and manages their lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oscalarm/oscalarm/internal/alarm"
	"github.com/oscalarm/oscalarm/internal/api"
	"github.com/oscalarm/oscalarm/internal/config"
	"github.com/oscalarm/oscalarm/internal/heartbeat"
	"github.com/oscalarm/oscalarm/internal/journal"
	"github.com/oscalarm/oscalarm/internal/osc"
	"github.com/oscalarm/oscalarm/internal/peer"
	"github.com/oscalarm/oscalarm/internal/router"
	"github.com/oscalarm/oscalarm/internal/server"
	"github.com/oscalarm/oscalarm/internal/settings"
	"github.com/oscalarm/oscalarm/internal/timer"
	"github.com/oscalarm/oscalarm/pkg/logger"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Sentinel errors for the daemon runner.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running daemon.
	ErrAlreadyRunning = errors.New("daemon is already running")

	// ErrNotRunning is returned when Shutdown() is called on a stopped daemon.
	ErrNotRunning = errors.New("daemon is not running")

	// ErrShutdownTimeout is returned when shutdown exceeds the configured timeout.
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

const (
	// DefaultShutdownTimeout bounds Shutdown and the HTTP drain.
	DefaultShutdownTimeout = 5 * time.Second
	// pruneEvery is how often old journal entries are removed.
	pruneEvery = time.Hour
)

// Options holds the configuration and injectable dependencies of a Runner.
type Options struct {
	Config *config.Config

	// Fs backs the settings store. If nil, the OS filesystem is used.
	// The settings watcher only runs on the OS filesystem.
	Fs     afero.Fs
	Logger logger.Logger
	// Clock drives the alarm timers. If nil, the real clock is used.
	Clock    timer.Clock
	Location *time.Location

	ShutdownTimeout time.Duration

	Version   string
	Commit    string
	BuildType string
}

// Runner manages the daemon lifecycle.
type Runner struct {
	opts *Options
	cfg  *config.Config
	base logger.Logger
	log  logger.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	ready   chan struct{}

	sched   *alarm.Scheduler
	recv    *osc.Receiver
	web     *server.WebServer
	rpc     *server.RPCServer
	journal *journal.Journal
	hb      *heartbeat.Heartbeat
}

// New creates a new daemon runner. If opts.Config is nil the defaults for
// the default config directory are used.
func New(opts *Options) (*Runner, error) {
	if opts == nil {
		opts = &Options{}
	}
	o := *opts
	if o.Config == nil {
		dir, err := config.Dir(nil)
		if err != nil {
			return nil, err
		}
		o.Config = config.Default(dir)
	}
	if err := o.Config.Validate(); err != nil {
		return nil, err
	}
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = DefaultShutdownTimeout
	}
	base := logger.OrNop(o.Logger)
	return &Runner{
		opts:  &o,
		cfg:   o.Config,
		base:  base,
		log:   logger.WithPrefix(base, "daemon"),
		ready: make(chan struct{}),
	}, nil
}

// named returns the logger handed to one component.
func (r *Runner) named(component string) logger.Logger {
	return logger.WithPrefix(r.base, component)
}

// Config returns the runner's configuration.
func (r *Runner) Config() *config.Config {
	return r.cfg
}

// Ready is closed once every listener is bound and the scheduler is armed.
func (r *Runner) Ready() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// Start brings the daemon up and blocks until ctx is canceled, Shutdown is
// called or a component fails. A clean stop returns nil.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	select {
	case <-r.ready:
		r.ready = make(chan struct{})
	default:
	}
	ready := r.ready
	r.running = true
	r.mu.Unlock()

	defer r.cleanupOnStop()

	g, err := r.setup(ctx)
	if err != nil {
		return err
	}
	close(ready)
	r.log.Info("up (osc %s -> %s, rpc %s)", r.recv.Addr(), r.cfg.OSC.Target, r.web.Addr())

	err = g.Wait()
	r.log.Info("stopping")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// setup builds every component and starts their goroutines. Bound
// resources are released by teardown even when setup fails halfway.
func (r *Runner) setup(ctx context.Context) (*errgroup.Group, error) {
	cfg := r.cfg

	store := settings.NewStore(r.opts.Fs, cfg.Settings.Path)
	initial, err := store.Load()
	switch {
	case errors.Is(err, settings.ErrCorrupt):
		r.log.Warning("%v; using defaults", err)
	case err != nil:
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if cfg.Journal.Path != journal.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Journal.Path), 0755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	r.journal, err = journal.Open(cfg.Journal.Path, r.named("journal"))
	if err != nil {
		return nil, err
	}

	// The scheduler and the notifier are created below; the hooks only run
	// once the scheduler is started.
	var (
		sched    *alarm.Scheduler
		notifier *server.RPCNotifier
	)
	clock := r.opts.Clock
	if clock == nil {
		clock = timer.RealClock{}
	}

	sender := osc.NewSender(cfg.OSC.Target, &osc.SenderOptions{
		Logger: r.named("osc"),
		OnSent: func(at time.Time) { sched.MarkOutbound(at) },
	})
	p := peer.New(sender, cfg.OSC.ParameterPrefix, r.named("peer"))
	record := r.journal.Observer()

	sched = alarm.New(initial, &alarm.Options{
		Clock:  clock,
		Logger: r.named("alarm"),
		Notifier: alarm.NotifierFunc(func(ctx context.Context, firing bool) error {
			notifier.PublishFiring(firing, clock.Now())
			return p.NotifyFiring(ctx, firing)
		}),
		OnTransition: func(tr alarm.Transition) {
			record(tr)
			notifier.PublishTransition(tr)
		},
		Location: r.opts.Location,
	})
	r.sched = sched
	publishSettings := func(st alarm.Settings) { notifier.PublishSettings(st) }

	a, err := api.NewApi(&api.Deps{
		Scheduler:  sched,
		Store:      store,
		Peer:       p,
		History:    r.journal,
		Logger:     r.named("api"),
		OnSettings: publishSettings,
		Version:    r.opts.Version,
		Commit:     r.opts.Commit,
		BuildType:  r.opts.BuildType,
	})
	if err != nil {
		return nil, err
	}
	r.rpc = server.NewRPCServer(&server.RPCConfig{
		Secret:        cfg.RPC.Secret,
		AllowNoSecret: cfg.AllowsNoSecret(),
	}, a, r.named("rpc"))
	notifier = r.rpc.Notifier()

	r.web = server.NewWebServer(r.named("rpc"), cfg.RPC.Listen, r.rpc)
	if err := r.web.Listen(); err != nil {
		return nil, fmt.Errorf("bind rpc listener: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	r.recv, err = osc.Listen(gctx, cfg.OSC.Listen, &osc.ListenOptions{Logger: r.named("osc")})
	if err != nil {
		return nil, err
	}

	rt := router.New(&router.Deps{
		Scheduler:  sched,
		Peer:       p,
		Store:      store,
		Logger:     r.named("router"),
		OnSettings: publishSettings,
		Now:        clock.Now,
	})

	if err := sched.Start(); err != nil {
		return nil, err
	}

	r.hb = heartbeat.New(sched, p, &heartbeat.Options{
		Interval:     cfg.Heartbeat.Interval,
		InitialDelay: cfg.Heartbeat.InitialDelay,
		SyncDelay:    cfg.Startup.SyncDelay,
		Logger:       r.named("heartbeat"),
	})

	g.Go(func() error { return rt.Run(gctx, r.recv.Messages()) })
	g.Go(r.web.Start)
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), r.opts.ShutdownTimeout)
		defer cancel()
		return r.web.Shutdown(sctx)
	})
	g.Go(func() error { return r.hb.Run(gctx) })
	if cfg.Journal.Retention > 0 {
		g.Go(func() error { return r.prune(gctx, clock) })
	}
	if _, onOS := r.opts.Fs.(*afero.OsFs); cfg.Settings.Watch && onOS {
		w := settings.NewWatcher(store, func(st alarm.Settings) {
			r.applyExternal(st, publishSettings)
		}, &settings.WatcherOptions{Logger: r.named("settings")})
		g.Go(func() error { return w.Run(gctx) })
	}
	return g, nil
}

// applyExternal applies settings edited outside the daemon. Our own saves
// come back through the watcher too and are dropped here.
func (r *Runner) applyExternal(st alarm.Settings, publish func(alarm.Settings)) {
	if st.Normalize() == r.sched.Settings() {
		return
	}
	next, err := r.sched.UpdateSettings(func(cur *alarm.Settings) { *cur = st })
	if err != nil {
		r.log.Error("apply edited settings: %v", err)
		return
	}
	publish(next)
	r.hb.Kick()
}

func (r *Runner) prune(ctx context.Context, clock timer.Clock) error {
	t := time.NewTicker(pruneEvery)
	defer t.Stop()
	for {
		n, err := r.journal.Prune(ctx, clock.Now().Add(-r.cfg.Journal.Retention))
		switch {
		case err != nil && ctx.Err() == nil:
			r.log.Warning("prune journal: %v", err)
		case n > 0:
			r.log.Info("pruned %d journal entries", n)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// cleanupOnStop releases everything setup acquired, in reverse order.
func (r *Runner) cleanupOnStop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	if r.sched != nil {
		_ = r.sched.Close()
	}
	if r.recv != nil {
		_ = r.recv.Close()
	}
	if r.web != nil {
		sctx, cancel := context.WithTimeout(context.Background(), r.opts.ShutdownTimeout)
		_ = r.web.Shutdown(sctx)
		cancel()
	}
	if r.rpc != nil {
		r.rpc.Close()
	}
	if r.journal != nil {
		_ = r.journal.Close()
	}
	r.running = false
	close(r.done)
}

// Shutdown stops the daemon and waits for Start to return.
// Returns ErrNotRunning if the daemon is not running.
// Returns ErrShutdownTimeout if Start does not return in time.
func (r *Runner) Shutdown() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return ErrNotRunning
	}
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	select {
	case <-done:
		return nil
	case <-time.After(r.opts.ShutdownTimeout):
		return ErrShutdownTimeout
	}
}

// IsRunning returns true if the daemon is currently running.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Scheduler returns the alarm scheduler, or nil before Ready.
func (r *Runner) Scheduler() *alarm.Scheduler {
	return r.sched
}

// RPCAddr returns the bound RPC address, or nil before Ready.
func (r *Runner) RPCAddr() net.Addr {
	if r.web == nil {
		return nil
	}
	return r.web.Addr()
}

// OSCAddr returns the bound parameter listener address, or nil before Ready.
func (r *Runner) OSCAddr() net.Addr {
	if r.recv == nil {
		return nil
	}
	return r.recv.Addr()
}
