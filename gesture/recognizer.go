package gesture

import (
	u "lautenbacher.net/ornament/util"
)

const (
	// LongPressMs is how long the button must be held before the hold
	// becomes a brightness gesture.
	LongPressMs uint32 = 1000
	// DoubleTapReleaseMs is the maximum time between two tap releases that
	// still counts as a double tap.
	DoubleTapReleaseMs uint32 = 1000
)

type phase uint8

const (
	idle phase = iota
	pressed
	longHold
)

func (p phase) String() string {
	switch p {
	case pressed:
		return "PRESSED"
	case longHold:
		return "LONG_HOLD"
	default:
		return "IDLE"
	}
}

// Sample is one tick's input: the button reading, the clock and the parts
// of the device state that classification depends on.
type Sample struct {
	Held        bool
	Now         uint32
	On          bool
	LastRelease uint32
}

// Recognizer classifies samples into gestures, at most one per tick.
type Recognizer struct {
	longPressMs uint32
	doubleTapMs uint32
	phase       phase
	pressStart  uint32
	// the current press turned the device on; its release is not a tap
	consumed bool
	// a single tap was recorded since the last reset
	tapped bool
}

func NewRecognizer() *Recognizer {
	return NewRecognizerWithThresholds(LongPressMs, DoubleTapReleaseMs)
}

func NewRecognizerWithThresholds(longPressMs, doubleTapMs uint32) *Recognizer {
	return &Recognizer{
		longPressMs: longPressMs,
		doubleTapMs: doubleTapMs,
	}
}

// Phase reports the recognizer state, IDLE, PRESSED or LONG_HOLD.
func (r *Recognizer) Phase() string {
	return r.phase.String()
}

// Reset forgets the current press and the tap history.
func (r *Recognizer) Reset() {
	r.phase = idle
	r.pressStart = 0
	r.consumed = false
	r.tapped = false
}

// Update feeds one sample and returns the recognised gesture, or nil.
// All time comparisons use wrapping subtraction, so classification keeps
// working when the clock rolls over.
func (r *Recognizer) Update(s Sample) Event {
	switch r.phase {
	case idle:
		if !s.Held {
			return nil
		}
		r.phase = pressed
		r.pressStart = s.Now
		r.consumed = false
		if !s.On {
			r.consumed = true
			return TurnOn{}
		}
		return nil

	case pressed:
		if !s.Held {
			r.phase = idle
			if r.consumed {
				return nil
			}
			return r.tap(s)
		}
		if elapsed := u.Elapsed(s.Now, r.pressStart); elapsed >= r.longPressMs {
			r.phase = longHold
			return LongPressTick{Elapsed: elapsed}
		}
		return nil

	case longHold:
		if !s.Held {
			// The release of a long press is never a tap, so it cannot
			// arm a double tap either.
			r.phase = idle
			return LongPressEnd{}
		}
		return LongPressTick{Elapsed: u.Elapsed(s.Now, r.pressStart)}
	}
	return nil
}

func (r *Recognizer) tap(s Sample) Event {
	if r.tapped && u.Elapsed(s.Now, s.LastRelease) < r.doubleTapMs {
		return DoubleTap{At: s.Now}
	}
	r.tapped = true
	return SingleTap{At: s.Now}
}
