// Package codec converts alarm clock units (hours, minutes) to and from the
// compact float encoding used on the parameter wire, where each unit step is
// 0.01. Decoding never fails: corrupted or out-of-range inputs are clamped.
package codec

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Scale is the number of units per 1.0 on the wire.
const Scale = 100

const (
	MaxHour   = 23
	MaxMinute = 59
)

// echoTolerance is how far a received wire value may sit from its canonical
// encoding before the canonical value is echoed back to the peer.
const echoTolerance = 0.001

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ToWire encodes unit, clamped to [0, max], as unit/100.
func ToWire(unit, max int) float32 {
	return float32(Clamp(unit, 0, max)) / Scale
}

// FromWire decodes a wire fraction into a unit in [0, max]. NaN decodes to 0.
func FromWire(f float32, max int) int {
	if math.IsNaN(float64(f)) {
		return 0
	}
	v := math.Round(float64(f) * Scale)
	return int(Clamp(v, 0, float64(max)))
}

// Canonical re-encodes f through FromWire and reports whether the canonical
// value differs enough from f that the peer should be told about it.
func Canonical(f float32, max int) (canon float32, changed bool) {
	canon = ToWire(FromWire(f, max), max)
	diff := math.Abs(float64(f) - float64(canon))
	return canon, math.IsNaN(diff) || diff > echoTolerance
}

func HourToWire(hour int) float32     { return ToWire(hour, MaxHour) }
func MinuteToWire(minute int) float32 { return ToWire(minute, MaxMinute) }
func HourFromWire(f float32) int      { return FromWire(f, MaxHour) }
func MinuteFromWire(f float32) int    { return FromWire(f, MaxMinute) }

// ClampHour and ClampMinute bound a local setter value before it is stored.
func ClampHour(hour int) int     { return Clamp(hour, 0, MaxHour) }
func ClampMinute(minute int) int { return Clamp(minute, 0, MaxMinute) }
