// Package gesture turns the debounced "button held" signal into discrete
// gestures: turn-on, taps, double taps and long presses.
package gesture

import "fmt"

// Handler receives gestures. Implementing it means handling every kind of
// gesture; a new gesture adds a method and breaks every handler that
// forgot it at compile time.
type Handler interface {
	OnTurnOn()
	OnLongPressTick(elapsed uint32)
	OnLongPressEnd()
	OnSingleTap(at uint32)
	OnDoubleTap()
}

// Event is a recognised gesture.
type Event interface {
	// Visit calls the Handler method matching the gesture.
	Visit(h Handler)
	// Kind is a short stable name used in logs and metrics.
	Kind() string
}

// TurnOn is a press while the device was off.
type TurnOn struct{}

// LongPressTick is emitted on every tick of a hold that passed the long
// press threshold. Elapsed is the time since the press started.
type LongPressTick struct {
	Elapsed uint32
}

// LongPressEnd is the release of a long press.
type LongPressEnd struct{}

// SingleTap is a short press released at At.
type SingleTap struct {
	At uint32
}

// DoubleTap is a short press released shortly after the previous tap.
type DoubleTap struct {
	At uint32
}

func (TurnOn) Visit(h Handler)          { h.OnTurnOn() }
func (e LongPressTick) Visit(h Handler) { h.OnLongPressTick(e.Elapsed) }
func (LongPressEnd) Visit(h Handler)    { h.OnLongPressEnd() }
func (e SingleTap) Visit(h Handler)     { h.OnSingleTap(e.At) }
func (DoubleTap) Visit(h Handler)       { h.OnDoubleTap() }

func (TurnOn) Kind() string        { return "turn_on" }
func (LongPressTick) Kind() string { return "long_press_tick" }
func (LongPressEnd) Kind() string  { return "long_press_end" }
func (SingleTap) Kind() string     { return "single_tap" }
func (DoubleTap) Kind() string     { return "double_tap" }

func (e LongPressTick) String() string { return fmt.Sprintf("long_press_tick(%dms)", e.Elapsed) }
func (e SingleTap) String() string     { return fmt.Sprintf("single_tap@%d", e.At) }
func (e DoubleTap) String() string     { return fmt.Sprintf("double_tap@%d", e.At) }
