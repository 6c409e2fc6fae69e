// Package peer names the exchanged parameters and sends alarm state to the
// remote peer over an osc transport.
package peer

import (
	"context"
	"errors"
	"strings"

	"github.com/oscalarm/oscalarm/common"
	"github.com/oscalarm/oscalarm/internal/alarm"
	"github.com/oscalarm/oscalarm/internal/codec"
	"github.com/oscalarm/oscalarm/internal/osc"
	"github.com/oscalarm/oscalarm/pkg/logger"
)

// DefaultPrefix is prepended to every parameter name on the wire.
const DefaultPrefix = common.DefaultParameterPrefix

// Parameter names.
const (
	AlarmSetHour    = "AlarmSetHour"
	AlarmSetMinute  = "AlarmSetMinute"
	AlarmIsOn       = "AlarmIsOn"
	SnoozePressed   = "SnoozePressed"
	StopPressed     = "StopPressed"
	AlarmShouldFire = "AlarmShouldFire"
)

// Transport is implemented by *osc.Sender.
type Transport interface {
	Send(ctx context.Context, path string, v osc.Value) error
	SendBundle(ctx context.Context, msgs []osc.Message) error
}

// Peer sends named parameters under a fixed prefix.
type Peer struct {
	t      Transport
	prefix string
	log    logger.Logger
}

// New returns a Peer. An empty prefix means DefaultPrefix.
func New(t Transport, prefix string, l logger.Logger) *Peer {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Peer{t: t, prefix: prefix, log: logger.OrNop(l)}
}

func (p *Peer) Prefix() string { return p.prefix }

// Path returns the wire path of name.
func (p *Peer) Path(name string) string { return p.prefix + name }

// Name strips the prefix from path. It reports false for paths outside it.
func (p *Peer) Name(path string) (string, bool) {
	if !strings.HasPrefix(path, p.prefix) {
		return "", false
	}
	name := strings.TrimPrefix(path, p.prefix)
	return name, name != ""
}

// Send sends one named parameter.
func (p *Peer) Send(ctx context.Context, name string, v osc.Value) error {
	return p.t.Send(ctx, p.Path(name), v)
}

// SendRaw sends v to path. A path without a leading slash is taken as a
// parameter name and prefixed.
func (p *Peer) SendRaw(ctx context.Context, path string, v osc.Value) error {
	if !strings.HasPrefix(path, "/") {
		path = p.Path(path)
	}
	return p.t.Send(ctx, path, v)
}

// NotifyFiring implements alarm.Notifier.
func (p *Peer) NotifyFiring(ctx context.Context, firing bool) error {
	return p.Send(ctx, AlarmShouldFire, osc.Bool(firing))
}

// SendSettings sends hour, minute and armed as three packets. Every send is
// attempted; the errors are joined.
func (p *Peer) SendSettings(ctx context.Context, s alarm.Settings) error {
	var errs []error
	for _, m := range p.settingsMessages(s) {
		if err := p.t.Send(ctx, m.Path, m.Value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendSettingsBundle sends hour, minute and armed as one bundle.
func (p *Peer) SendSettingsBundle(ctx context.Context, s alarm.Settings) error {
	return p.t.SendBundle(ctx, p.settingsMessages(s))
}

func (p *Peer) settingsMessages(s alarm.Settings) []osc.Message {
	return []osc.Message{
		{Path: p.Path(AlarmSetHour), Value: osc.Float(codec.HourToWire(s.Hour))},
		{Path: p.Path(AlarmSetMinute), Value: osc.Float(codec.MinuteToWire(s.Minute))},
		{Path: p.Path(AlarmIsOn), Value: osc.Bool(s.Armed)},
	}
}

var _ alarm.Notifier = (*Peer)(nil)
