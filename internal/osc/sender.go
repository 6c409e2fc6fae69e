package osc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/oscalarm/oscalarm/pkg/logger"
)

// SenderOptions configures a Sender.
type SenderOptions struct {
	Logger logger.Logger
	// OnSent is called after every successful write.
	OnSent func(at time.Time)
	// DialContext overrides (*net.Dialer).DialContext, for tests.
	DialContext func(ctx context.Context, network, address string) (net.Conn, error)
}

// Sender writes parameter packets to one fixed UDP destination. Each call
// makes a single attempt; retry is the caller's business.
type Sender struct {
	target string
	log    logger.Logger
	onSent func(time.Time)
	dial   func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewSender returns a Sender for target ("host:port").
func NewSender(target string, opts *SenderOptions) *Sender {
	if opts == nil {
		opts = &SenderOptions{}
	}
	s := &Sender{
		target: target,
		log:    logger.OrNop(opts.Logger),
		onSent: opts.OnSent,
		dial:   opts.DialContext,
	}
	if s.dial == nil {
		var d net.Dialer
		s.dial = d.DialContext
	}
	return s
}

// Target returns the destination address.
func (s *Sender) Target() string { return s.target }

// Send encodes and sends a single parameter.
func (s *Sender) Send(ctx context.Context, path string, v Value) error {
	b, err := Encode(Message{Path: path, Value: v})
	if err != nil {
		return err
	}
	if err := s.write(ctx, b); err != nil {
		return err
	}
	s.log.Info("sent %s=%s to %s", path, v, s.target)
	return nil
}

// SendBundle sends msgs as one immediate bundle. The receiver applies them
// in slice order.
func (s *Sender) SendBundle(ctx context.Context, msgs []Message) error {
	b, err := EncodeBundle(msgs)
	if err != nil {
		return err
	}
	if err := s.write(ctx, b); err != nil {
		return err
	}
	s.log.Info("sent bundle of %d parameters to %s", len(msgs), s.target)
	return nil
}

func (s *Sender) write(ctx context.Context, b []byte) error {
	conn, err := s.dial(ctx, "udp", s.target)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrSend, s.target, err)
	}
	defer conn.Close()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(dl)
	}
	if _, err := conn.Write(b); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrSend, s.target, err)
	}
	if s.onSent != nil {
		s.onSent(time.Now())
	}
	return nil
}
