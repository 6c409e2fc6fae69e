package osc

import (
	"fmt"
	"time"

	goosc "github.com/hypebeast/go-osc/osc"
)

// immediate is the OSC time tag meaning "apply on receipt".
const immediate = 1

// Encode serializes one parameter message.
func Encode(m Message) ([]byte, error) {
	msg, err := newOSCMessage(m)
	if err != nil {
		return nil, err
	}
	b, err := msg.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncode, m.Path, err)
	}
	return b, nil
}

// EncodeBundle serializes msgs, in order, into one immediate bundle.
func EncodeBundle(msgs []Message) ([]byte, error) {
	if len(msgs) == 0 {
		return nil, ErrEmptyBundle
	}
	bundle := goosc.NewBundle(time.Now())
	bundle.Timetag = *goosc.NewTimetagFromTimetag(immediate)
	for _, m := range msgs {
		msg, err := newOSCMessage(m)
		if err != nil {
			return nil, err
		}
		bundle.Messages = append(bundle.Messages, msg)
	}
	b, err := bundle.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: bundle: %v", ErrEncode, err)
	}
	return b, nil
}

func newOSCMessage(m Message) (*goosc.Message, error) {
	if m.Path == "" || m.Path[0] != '/' {
		return nil, fmt.Errorf("%w: invalid path %q", ErrEncode, m.Path)
	}
	arg, err := m.Value.arg()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncode, m.Path, err)
	}
	msg := goosc.NewMessage(m.Path)
	msg.Append(arg)
	return msg, nil
}

// Decode parses a packet into its parameter messages, flattening bundles in
// their declared order. Messages whose first argument is missing or of an
// unsupported type are counted in dropped rather than returned.
func Decode(b []byte) (msgs []Message, dropped int, err error) {
	defer func() {
		// go-osc indexes into the buffer without bounds checks on some
		// truncated inputs.
		if r := recover(); r != nil {
			msgs, dropped, err = nil, 0, fmt.Errorf("%w: %v", ErrDecode, r)
		}
	}()
	packet, perr := goosc.ParsePacket(string(b))
	if perr != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDecode, perr)
	}
	if packet == nil {
		return nil, 0, fmt.Errorf("%w: empty packet", ErrDecode)
	}
	msgs, dropped = flatten(packet, nil, 0)
	return msgs, dropped, nil
}

func flatten(p goosc.Packet, out []Message, dropped int) ([]Message, int) {
	switch p := p.(type) {
	case *goosc.Message:
		if m, ok := fromOSCMessage(p); ok {
			out = append(out, m)
		} else {
			dropped++
		}
	case *goosc.Bundle:
		for _, m := range p.Messages {
			out, dropped = flatten(m, out, dropped)
		}
		for _, b := range p.Bundles {
			out, dropped = flatten(b, out, dropped)
		}
	}
	return out, dropped
}

func fromOSCMessage(m *goosc.Message) (Message, bool) {
	if m == nil || len(m.Arguments) == 0 {
		return Message{}, false
	}
	v, ok := valueOf(m.Arguments[0])
	if !ok {
		return Message{}, false
	}
	return Message{Path: m.Address, Value: v}, true
}
