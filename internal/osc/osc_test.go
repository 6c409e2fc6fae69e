package osc

import (
	"context"
	"errors"
	"math"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oscalarm/oscalarm/pkg/logger"
)

func TestEncodeDecode_Message(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"float", Message{Path: "/avatar/parameters/AlarmSetHour", Value: Float(0.07)}},
		{"bool true", Message{Path: "/avatar/parameters/AlarmShouldFire", Value: Bool(true)}},
		{"bool false", Message{Path: "/avatar/parameters/AlarmIsOn", Value: Bool(false)}},
		{"int", Message{Path: "/debug/count", Value: Int(42)}},
		{"string", Message{Path: "/debug/note", Value: String("hello")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Encode(tt.msg)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			msgs, dropped, err := Decode(b)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if dropped != 0 || len(msgs) != 1 {
				t.Fatalf("got %d messages, %d dropped, want 1, 0", len(msgs), dropped)
			}
			if msgs[0] != tt.msg {
				t.Errorf("got %v, want %v", msgs[0], tt.msg)
			}
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	if _, err := Encode(Message{Path: "/x"}); !errors.Is(err, ErrEncode) {
		t.Errorf("invalid value: got %v, want ErrEncode", err)
	}
	if _, err := Encode(Message{Path: "nope", Value: Bool(true)}); !errors.Is(err, ErrEncode) {
		t.Errorf("invalid path: got %v, want ErrEncode", err)
	}
	if _, err := EncodeBundle(nil); !errors.Is(err, ErrEmptyBundle) {
		t.Errorf("empty bundle: got %v, want ErrEmptyBundle", err)
	}
}

func TestEncodeBundle_PreservesOrder(t *testing.T) {
	in := []Message{
		{Path: "/avatar/parameters/AlarmSetHour", Value: Float(0.07)},
		{Path: "/avatar/parameters/AlarmSetMinute", Value: Float(0.3)},
		{Path: "/avatar/parameters/AlarmIsOn", Value: Bool(true)},
	}
	b, err := EncodeBundle(in)
	if err != nil {
		t.Fatalf("EncodeBundle: %v", err)
	}
	got, _, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("got %d messages, want %d", len(got), len(in))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("message %d: got %v, want %v", i, got[i], in[i])
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, in := range [][]byte{
		nil,
		[]byte("garbage"),
		[]byte("#bundle\x00\x00\x00"),
	} {
		if _, _, err := Decode(in); err == nil {
			t.Errorf("Decode(%q): expected error", in)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want Value
	}{
		{"true", Bool(true)},
		{"false", Bool(false)},
		{"12", Int(12)},
		{"0.25", Float(0.25)},
		{"hello", String("hello")},
	}
	for _, tt := range tests {
		if got := ParseValue(tt.in); got != tt.want {
			t.Errorf("ParseValue(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValueAccessors(t *testing.T) {
	if b, ok := Bool(true).AsBool(); !ok || !b {
		t.Error("AsBool on bool value")
	}
	if _, ok := Float(1).AsBool(); ok {
		t.Error("AsBool on float value should report false")
	}
	if f, ok := Float(0.5).AsFloat(); !ok || math.Abs(float64(f)-0.5) > 1e-6 {
		t.Error("AsFloat on float value")
	}
	if (Value{}).IsValid() {
		t.Error("zero Value should be invalid")
	}
}

func listen(t *testing.T, opts *ListenOptions) (*Receiver, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	r, err := Listen(ctx, "127.0.0.1:0", opts)
	if err != nil {
		cancel()
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		r.Close()
	})
	return r, cancel
}

func recv(t *testing.T, r *Receiver) Message {
	t.Helper()
	select {
	case m, ok := <-r.Messages():
		if !ok {
			t.Fatal("message stream closed")
		}
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestSenderReceiver_Loopback(t *testing.T) {
	var received atomic.Int32
	r, _ := listen(t, &ListenOptions{OnReceive: func(time.Time) { received.Add(1) }})

	var sent atomic.Int32
	s := NewSender(r.Addr().String(), &SenderOptions{OnSent: func(time.Time) { sent.Add(1) }})
	ctx := context.Background()

	if err := s.Send(ctx, "/avatar/parameters/SnoozePressed", Bool(true)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := recv(t, r); got.Path != "/avatar/parameters/SnoozePressed" || got.Value != Bool(true) {
		t.Errorf("got %v", got)
	}

	bundle := []Message{
		{Path: "/a", Value: Float(0.01)},
		{Path: "/b", Value: Bool(false)},
	}
	if err := s.SendBundle(ctx, bundle); err != nil {
		t.Fatalf("SendBundle: %v", err)
	}
	for _, want := range bundle {
		if got := recv(t, r); got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	}
	if sent.Load() != 2 {
		t.Errorf("OnSent called %d times, want 2", sent.Load())
	}
	if received.Load() != 2 {
		t.Errorf("OnReceive called %d times, want 2", received.Load())
	}
}

func TestReceiver_SurvivesMalformedPackets(t *testing.T) {
	log := logger.NewMockLogger()
	r, _ := listen(t, &ListenOptions{Logger: log})

	conn, err := net.Dial("udp", r.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("not an osc packet")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	s := NewSender(r.Addr().String(), nil)
	if err := s.Send(context.Background(), "/avatar/parameters/StopPressed", Bool(true)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := recv(t, r); got.Path != "/avatar/parameters/StopPressed" {
		t.Errorf("got %v after malformed packet", got)
	}
	if len(log.Warnings()) == 0 {
		t.Error("expected a warning for the malformed packet")
	}
}

func TestReceiver_ClosesOnContextCancel(t *testing.T) {
	r, cancel := listen(t, nil)
	cancel()
	select {
	case _, ok := <-r.Messages():
		if ok {
			t.Fatal("unexpected message")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message stream not closed after cancel")
	}
}

func TestListen_BindError(t *testing.T) {
	r, _ := listen(t, nil)
	_, err := Listen(context.Background(), r.Addr().String(), nil)
	if !errors.Is(err, ErrBind) {
		t.Errorf("got %v, want ErrBind", err)
	}
}

func TestSender_DialError(t *testing.T) {
	s := NewSender("127.0.0.1:9", &SenderOptions{
		DialContext: func(context.Context, string, string) (net.Conn, error) {
			return nil, errors.New("network down")
		},
	})
	if err := s.Send(context.Background(), "/x", Bool(true)); !errors.Is(err, ErrSend) {
		t.Errorf("got %v, want ErrSend", err)
	}
}

// brokenConn fails every read until closed.
type brokenConn struct {
	net.PacketConn
	reads  atomic.Int32
	closed chan struct{}
}

func (c *brokenConn) ReadFrom([]byte) (int, net.Addr, error) {
	select {
	case <-c.closed:
		return 0, nil, net.ErrClosed
	default:
	}
	c.reads.Add(1)
	return 0, nil, errors.New("connection refused")
}

func (c *brokenConn) Close() error {
	close(c.closed)
	return nil
}

func TestReceiver_BacksOffOnReadErrors(t *testing.T) {
	prevMin, prevMax := readBackoffMin, readBackoffMax
	readBackoffMin, readBackoffMax = 5*time.Millisecond, 20*time.Millisecond
	defer func() { readBackoffMin, readBackoffMax = prevMin, prevMax }()

	log := logger.NewMockLogger()
	conn := &brokenConn{closed: make(chan struct{})}
	r := newReceiver(conn, &ListenOptions{Logger: log})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.loop(ctx)

	time.Sleep(150 * time.Millisecond)
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case _, ok := <-r.Messages():
		if ok {
			t.Fatal("unexpected message")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after Close")
	}

	// 5+10+20+20... ms over 150ms allows about ten reads.
	if n := conn.reads.Load(); n < 2 || n > 20 {
		t.Fatalf("reads = %d, want a handful with backoff", n)
	}
	if got, want := len(log.Warnings()), int(conn.reads.Load()); got != want {
		t.Fatalf("warnings = %d, want one per failed read (%d)", got, want)
	}
}
