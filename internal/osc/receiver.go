package osc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/oscalarm/oscalarm/pkg/logger"
)

// maxPacketSize bounds one UDP datagram.
const maxPacketSize = 65535

// Read errors other than a closed socket back off between these bounds, doubling
// each time, so a persistently failing socket cannot spin.
var (
	readBackoffMin = 5 * time.Millisecond
	readBackoffMax = time.Second
)

// ListenOptions configures a Receiver.
type ListenOptions struct {
	Logger logger.Logger
	// OnReceive is called for every datagram that decoded successfully.
	OnReceive func(at time.Time)
	// Buffer is the capacity of the Messages channel.
	Buffer int
}

// Receiver owns the bound socket and the receive loop goroutine.
type Receiver struct {
	conn      net.PacketConn
	msgs      chan Message
	log       logger.Logger
	onReceive func(time.Time)
	closeOnce sync.Once
	done      chan struct{}
}

// Listen binds addr once and starts the receive loop. The returned
// Receiver's Messages channel yields decoded parameters until ctx is done or
// Close is called; it cannot be restarted. Malformed packets are logged and
// dropped without stopping the loop.
func Listen(ctx context.Context, addr string, opts *ListenOptions) (*Receiver, error) {
	if opts == nil {
		opts = &ListenOptions{}
	}
	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBind, addr, err)
	}
	r := newReceiver(conn, opts)
	r.log.Info("listening for parameters on %s", conn.LocalAddr())
	go r.watch(ctx)
	go r.loop(ctx)
	return r, nil
}

func newReceiver(conn net.PacketConn, opts *ListenOptions) *Receiver {
	buf := opts.Buffer
	if buf <= 0 {
		buf = 64
	}
	return &Receiver{
		conn:      conn,
		msgs:      make(chan Message, buf),
		log:       logger.OrNop(opts.Logger),
		onReceive: opts.OnReceive,
		done:      make(chan struct{}),
	}
}

// Messages returns the stream of decoded parameters. It is closed when the
// loop exits.
func (r *Receiver) Messages() <-chan Message { return r.msgs }

// Addr returns the bound address.
func (r *Receiver) Addr() net.Addr { return r.conn.LocalAddr() }

// Close stops the loop and releases the socket.
func (r *Receiver) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.done)
		err = r.conn.Close()
	})
	return err
}

func (r *Receiver) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		_ = r.Close()
	case <-r.done:
	}
}

func (r *Receiver) loop(ctx context.Context) {
	defer close(r.msgs)
	buf := make([]byte, maxPacketSize)
	var delay time.Duration
	for {
		n, from, err := r.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || r.closed() {
				return
			}
			if delay == 0 {
				delay = readBackoffMin
			} else if delay *= 2; delay > readBackoffMax {
				delay = readBackoffMax
			}
			r.log.Warning("receive error: %v; retrying in %s", err, delay)
			if !r.sleep(ctx, delay) {
				return
			}
			continue
		}
		delay = 0
		msgs, dropped, err := Decode(buf[:n])
		if err != nil {
			r.log.Warning("dropped malformed packet from %s: %v", from, err)
			continue
		}
		if dropped > 0 {
			r.log.Warning("ignored %d message(s) without a supported argument from %s", dropped, from)
		}
		if r.onReceive != nil {
			r.onReceive(time.Now())
		}
		for _, m := range msgs {
			select {
			case r.msgs <- m:
			case <-ctx.Done():
				return
			case <-r.done:
				return
			}
		}
	}
}

// sleep waits for d and reports false if the receiver stopped meanwhile.
func (r *Receiver) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-r.done:
		return false
	}
}

func (r *Receiver) closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}
