// Package heartbeat keeps the peer in step with the stored alarm settings:
// one full push shortly after startup, then a periodic bundle.
package heartbeat

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/oscalarm/oscalarm/common"
	"github.com/oscalarm/oscalarm/internal/alarm"
	"github.com/oscalarm/oscalarm/pkg/logger"
)

const sendTimeout = 2 * time.Second

// Source provides the settings to announce.
type Source interface {
	Settings() alarm.Settings
}

// Pusher is implemented by *peer.Peer.
type Pusher interface {
	SendSettings(ctx context.Context, s alarm.Settings) error
	SendSettingsBundle(ctx context.Context, s alarm.Settings) error
}

// Options configures a Heartbeat. Zero durations take the defaults from
// common; a negative SyncDelay disables the startup sync.
type Options struct {
	Interval     time.Duration
	InitialDelay time.Duration
	SyncDelay    time.Duration
	Logger       logger.Logger
}

// Heartbeat runs the startup sync and the periodic bundle.
type Heartbeat struct {
	src  Source
	p    Pusher
	opts Options
	log  logger.Logger
	kick chan struct{}

	beats  atomic.Uint64
	synced atomic.Bool
}

func New(src Source, p Pusher, opts *Options) *Heartbeat {
	var o Options
	if opts != nil {
		o = *opts
	}
	if o.Interval <= 0 {
		o.Interval = common.DefaultHeartbeatInterval
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = common.DefaultHeartbeatInitialDelay
	}
	if o.SyncDelay == 0 {
		o.SyncDelay = common.DefaultStartupSyncDelay
	}
	return &Heartbeat{
		src:  src,
		p:    p,
		opts: o,
		log:  logger.OrNop(o.Logger),
		kick: make(chan struct{}, 1),
	}
}

// Beats reports how many bundles were sent successfully.
func (h *Heartbeat) Beats() uint64 { return h.beats.Load() }

// Synced reports whether the startup sync reached the peer.
func (h *Heartbeat) Synced() bool { return h.synced.Load() }

// Kick sends a bundle now and restarts the interval. It never blocks.
func (h *Heartbeat) Kick() {
	select {
	case h.kick <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled. It always returns nil: failed sends
// are logged and retried on the next beat.
func (h *Heartbeat) Run(ctx context.Context) error {
	var syncCh <-chan time.Time
	if h.opts.SyncDelay > 0 {
		syncTimer := time.NewTimer(h.opts.SyncDelay)
		defer syncTimer.Stop()
		syncCh = syncTimer.C
	}
	beat := time.NewTimer(h.opts.InitialDelay)
	defer beat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-syncCh:
			syncCh = nil
			h.sync(ctx)

		case <-h.kick:
			h.beat(ctx)
			beat.Reset(h.opts.Interval)

		case <-beat.C:
			h.beat(ctx)
			beat.Reset(h.opts.Interval)
		}
	}
}

func (h *Heartbeat) sync(ctx context.Context) {
	st := h.src.Settings()
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := h.p.SendSettings(ctx, st); err != nil {
		h.log.Warning("startup sync: %v", err)
		return
	}
	h.synced.Store(true)
	h.log.Info("startup sync sent %02d:%02d armed=%t", st.Hour, st.Minute, st.Armed)
}

func (h *Heartbeat) beat(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := h.p.SendSettingsBundle(ctx, h.src.Settings()); err != nil {
		h.log.Warning("%v", err)
		return
	}
	h.beats.Add(1)
}
