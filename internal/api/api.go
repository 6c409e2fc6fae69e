// Package api implements the daemon command surface. The RPC server and
// the daemon call into it; it owns no state of its own.
package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oscalarm/oscalarm/common"
	"github.com/oscalarm/oscalarm/internal/alarm"
	"github.com/oscalarm/oscalarm/internal/journal"
	"github.com/oscalarm/oscalarm/internal/osc"
	"github.com/oscalarm/oscalarm/internal/timer"
	"github.com/oscalarm/oscalarm/pkg/logger"
)

// DefaultSendTimeout bounds the peer sends made by a command.
const DefaultSendTimeout = 2 * time.Second

// Error classes returned by Api methods. They are wrapped with detail and
// mapped to JSON-RPC codes by the server.
var (
	ErrInvalidParams = errors.New("invalid params")
	ErrPersist       = errors.New("settings not saved")
	ErrTransport     = errors.New("peer not reached")
	ErrScheduler     = errors.New("scheduler rejected the request")
)

// Scheduler is implemented by *alarm.Scheduler.
type Scheduler interface {
	Snapshot() alarm.Status
	Settings() alarm.Settings
	UpdateSettings(fn func(*alarm.Settings)) (alarm.Settings, error)
	Dispatch(ev alarm.Event) error
	TimerStats() timer.Stats
}

// Store is implemented by *settings.Store.
type Store interface {
	Load() (alarm.Settings, error)
	Save(alarm.Settings) error
}

// Peer is implemented by *peer.Peer.
type Peer interface {
	SendSettings(ctx context.Context, s alarm.Settings) error
	SendRaw(ctx context.Context, path string, v osc.Value) error
}

// History is implemented by *journal.Journal.
type History interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// Deps are the collaborators of an Api. History and OnSettings may be nil.
type Deps struct {
	Scheduler Scheduler
	Store     Store
	Peer      Peer
	History   History
	Logger    logger.Logger
	// OnSettings is called after every settings change made through the Api.
	OnSettings func(alarm.Settings)

	Version   string
	Commit    string
	BuildType string
}

type Api struct {
	sched      Scheduler
	store      Store
	peer       Peer
	history    History
	log        logger.Logger
	onSettings func(alarm.Settings)

	version   string
	commit    string
	buildType string
}

func NewApi(d *Deps) (*Api, error) {
	if d.Scheduler == nil || d.Store == nil || d.Peer == nil {
		return nil, errors.New("api: scheduler, store and peer are required")
	}
	return &Api{
		sched:      d.Scheduler,
		store:      d.Store,
		peer:       d.Peer,
		history:    d.History,
		log:        logger.OrNop(d.Logger),
		onSettings: d.OnSettings,
		version:    d.Version,
		commit:     d.Commit,
		buildType:  d.BuildType,
	}, nil
}

// SetOnSettings replaces the settings hook. Call before serving requests.
func (s *Api) SetOnSettings(fn func(alarm.Settings)) {
	s.onSettings = fn
}

// persist saves st and tells the peer, after the scheduler already applied
// it. Neither failure undoes the in-memory change.
func (s *Api) persist(ctx context.Context, st alarm.Settings, push bool) error {
	if s.onSettings != nil {
		s.onSettings(st)
	}
	if err := s.store.Save(st); err != nil {
		s.log.Error("save settings: %v", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if !push {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultSendTimeout)
	defer cancel()
	if err := s.peer.SendSettings(ctx, st); err != nil {
		s.log.Warning("push settings: %v", err)
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return nil
}

// SettingsToWire converts settings to their RPC form.
func SettingsToWire(st alarm.Settings) common.AlarmSettings {
	return common.AlarmSettings{
		Hour:          st.Hour,
		Minute:        st.Minute,
		Armed:         st.Armed,
		MaxSnoozes:    st.MaxSnoozes,
		RingMinutes:   st.RingMinutes,
		SnoozeMinutes: st.SnoozeMinutes,
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
