package state

import (
	"log/slog"
	"math"

	"lautenbacher.net/ornament/gesture"
	u "lautenbacher.net/ornament/util"
)

// Brightness sweep while the button is held: amplitude*sin(freq*t)+offset.
const (
	BrightnessAmp    = 50.0
	BrightnessOffset = 50.0
	BrightnessFreq   = 1.0 / 1000
)

// Machine holds the current state and the snapshot taken before the last
// single tap. It implements gesture.Handler.
type Machine struct {
	current  State
	previous State
}

func NewMachine(startOn bool) *Machine {
	s := Default(startOn)
	return &Machine{current: s, previous: s}
}

// ResumeMachine continues from s with an empty undo history. An
// interrupted long press is dropped.
func ResumeMachine(s State) *Machine {
	s.LongPress = false
	return &Machine{current: s, previous: s}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.current
}

// Previous returns the snapshot restored by a double tap.
func (m *Machine) Previous() State {
	return m.previous
}

// Apply dispatches ev to the matching handler method.
func (m *Machine) Apply(ev gesture.Event) {
	if ev == nil {
		return
	}
	ev.Visit(m)
}

func (m *Machine) OnTurnOn() {
	m.current.On = true
}

func (m *Machine) OnLongPressTick(elapsed uint32) {
	m.current.LongPress = true
	m.current.Brightness = SweepBrightness(elapsed)
}

func (m *Machine) OnLongPressEnd() {
	m.current.LongPress = false
}

// OnSingleTap advances the colour; when the colours wrap it advances the
// mode. The state before the tap is kept for a following double tap.
func (m *Machine) OnSingleTap(at uint32) {
	m.previous = m.current
	var wrapped bool
	if m.current.Colour, wrapped = m.current.Colour.Next(); wrapped {
		m.current.Mode, _ = m.current.Mode.Next()
	}
	m.current.LastRelease = at
}

// OnDoubleTap undoes the previous single tap and switches off.
func (m *Machine) OnDoubleTap() {
	m.current = m.previous
	m.current.On = false
}

// Reset restores the defaults, switched off.
func (m *Machine) Reset() {
	s := Default(false)
	m.current = s
	m.previous = s
}

// Validate resets the machine when the current or previous state holds a
// colour or mode outside its range. It returns false if it had to reset.
func (m *Machine) Validate() bool {
	if m.current.Valid() && m.previous.Valid() {
		return true
	}
	slog.Warn("Invalid state, resetting", "current", m.current.String(), "previous", m.previous.String())
	m.Reset()
	return false
}

// SweepBrightness maps the hold time onto the sinusoidal brightness sweep,
// truncated and clamped to 1..100.
func SweepBrightness(elapsed uint32) uint8 {
	v := int(BrightnessAmp*math.Sin(BrightnessFreq*float64(elapsed)) + BrightnessOffset)
	return uint8(u.Clamp(v, MinBrightness, MaxBrightness))
}
