package util

import (
	"time"

	"golang.org/x/exp/constraints"
)

// Clock is a monotonic millisecond counter that wraps at 2^32, the
// way a microcontroller's millis() does after ~49.7 days.
type Clock interface {
	Millis() uint32
}

// MonotonicClock counts milliseconds since it was created. Offset shifts
// the counter, which lets a simulation start close to the wrap point.
type MonotonicClock struct {
	start  time.Time
	offset uint32
}

func NewMonotonicClock(offset uint32) *MonotonicClock {
	return &MonotonicClock{start: time.Now(), offset: offset}
}

// Millis truncates the elapsed milliseconds to 32 bits; the truncation is
// the wraparound.
func (c *MonotonicClock) Millis() uint32 {
	return uint32(time.Since(c.start).Milliseconds()) + c.offset
}

// Elapsed returns the milliseconds between since and now on a wrapping
// 32-bit clock. Unsigned subtraction yields the forward distance even when
// now has wrapped past zero and is numerically smaller than since.
func Elapsed(now, since uint32) uint32 {
	return now - since
}

// Wrapped reports whether the counter rolled over between since and now.
func Wrapped(now, since uint32) bool {
	return now < since
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
