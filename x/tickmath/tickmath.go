// Package tickmath converts between device tick counts and nanoseconds.
//
// Timer hardware counts in native ticks at an observed frequency; callers
// think in nanoseconds. The conversions here use 128-bit intermediates so
// they stay exact over tens of years of nanosecond range, and saturate at
// MaxUint64 instead of wrapping.
package tickmath

import (
	"math"
	"math/bits"

	"periph.io/x/conn/v3/physic"
)

const nsPerSecond = 1_000_000_000

// Hz returns f as whole hertz. Sub-hertz and non-positive frequencies
// collapse to 0, which callers treat as "frequency unusable".
func Hz(f physic.Frequency) uint64 {
	if f < physic.Hertz {
		return 0
	}
	return uint64(f / physic.Hertz)
}

// PeriodNs returns the nanosecond length of one tick at f, 0 if f is
// unusable.
func PeriodNs(f physic.Frequency) uint64 {
	hz := Hz(f)
	if hz == 0 {
		return 0
	}
	return nsPerSecond / hz
}

// ExactPeriodNs returns the tick length at f only when it is a whole
// number of nanoseconds, 0 otherwise. Platforms report a resolution
// through this so a 24 MHz clock answers "unsupported" instead of a
// rounded figure.
func ExactPeriodNs(f physic.Frequency) uint64 {
	hz := Hz(f)
	if hz == 0 || nsPerSecond%hz != 0 {
		return 0
	}
	return nsPerSecond / hz
}

// TicksToNs converts a tick count at f to nanoseconds, rounding down.
// Monotone non-decreasing in ticks.
func TicksToNs(ticks uint64, f physic.Frequency) uint64 {
	return mulDiv(ticks, nsPerSecond, Hz(f))
}

// NsToTicks converts nanoseconds to ticks at f, rounding up so a deadline
// converted to ticks never fires early.
func NsToTicks(ns uint64, f physic.Frequency) uint64 {
	return mulDivCeil(ns, Hz(f), nsPerSecond)
}

// SatAdd returns a+b, saturating at MaxUint64.
func SatAdd(a, b uint64) uint64 {
	s, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return s
}

// mulDiv computes a*b/div through a 128-bit intermediate. A zero divisor
// or a quotient beyond 64 bits saturates.
func mulDiv(a, b, div uint64) uint64 {
	if div == 0 {
		return math.MaxUint64
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= div {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, div)
	return q
}

func mulDivCeil(a, b, div uint64) uint64 {
	if div == 0 {
		return math.MaxUint64
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= div {
		return math.MaxUint64
	}
	q, r := bits.Div64(hi, lo, div)
	if r != 0 {
		return SatAdd(q, 1)
	}
	return q
}
