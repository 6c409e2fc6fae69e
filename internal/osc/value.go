// Package osc carries named alarm parameters over UDP using Open Sound
// Control packets. It encodes single messages and immediate bundles, and runs
// a receive loop that decodes inbound packets into a stream of Messages.
package osc

import (
	"errors"
	"fmt"
	"strconv"
)

// Kind identifies the type of a parameter value.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindFloat
	KindInt
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// Value is a typed parameter value. Alarm parameters only use bool and
// float; int and string exist for diagnostics sends.
type Value struct {
	kind Kind
	b    bool
	f    float32
	i    int32
	s    string
}

func Bool(b bool) Value       { return Value{kind: KindBool, b: b} }
func Float(f float32) Value   { return Value{kind: KindFloat, f: f} }
func Int(i int32) Value       { return Value{kind: KindInt, i: i} }
func String(s string) Value   { return Value{kind: KindString, s: s} }
func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// AsBool returns the value and true if v holds a bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsFloat returns the value and true if v holds a float.
func (v Value) AsFloat() (float32, bool) { return v.f, v.kind == KindFloat }

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindFloat:
		return strconv.FormatFloat(float64(v.f), 'f', 3, 32)
	case KindInt:
		return strconv.FormatInt(int64(v.i), 10)
	case KindString:
		return strconv.Quote(v.s)
	default:
		return "<invalid>"
	}
}

// arg returns the go-osc argument for v.
func (v Value) arg() (interface{}, error) {
	switch v.kind {
	case KindBool:
		return v.b, nil
	case KindFloat:
		return v.f, nil
	case KindInt:
		return v.i, nil
	case KindString:
		return v.s, nil
	default:
		return nil, ErrUnsupportedValue
	}
}

// valueOf converts a decoded go-osc argument.
func valueOf(arg interface{}) (Value, bool) {
	switch a := arg.(type) {
	case bool:
		return Bool(a), true
	case float32:
		return Float(a), true
	case float64:
		return Float(float32(a)), true
	case int32:
		return Int(a), true
	case string:
		return String(a), true
	default:
		return Value{}, false
	}
}

// ParseValue parses a command-line value: "true"/"false" become bools,
// integers become ints, decimals become floats, anything else a string.
func ParseValue(s string) Value {
	if s == "true" || s == "false" {
		return Bool(s == "true")
	}
	if i, err := strconv.ParseInt(s, 10, 32); err == nil {
		return Int(int32(i))
	}
	if f, err := strconv.ParseFloat(s, 32); err == nil {
		return Float(float32(f))
	}
	return String(s)
}

// Message is a named parameter with exactly one value.
type Message struct {
	Path  string
	Value Value
}

func (m Message) String() string {
	return fmt.Sprintf("%s=%s", m.Path, m.Value)
}

var (
	ErrUnsupportedValue = errors.New("unsupported parameter value")
	ErrEncode           = errors.New("encode parameter packet")
	ErrDecode           = errors.New("decode parameter packet")
	ErrSend             = errors.New("send parameter packet")
	ErrBind             = errors.New("bind parameter listener")
	ErrEmptyBundle      = errors.New("empty parameter bundle")
)
