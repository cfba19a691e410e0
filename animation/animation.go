// Package animation renders the ornament's four animations. Every
// animation is a pure function of the state and the clock: there are no
// per-animation counters, so switching modes shows the correct frame
// immediately.
package animation

import (
	"lautenbacher.net/ornament/colour"
	"lautenbacher.net/ornament/ring"
	"lautenbacher.net/ornament/state"
)

const (
	// BreathingStepMs is the clock divider for the breathing envelope and
	// the chasing marker: 200 steps per breath, 360 steps per revolution.
	BreathingStepMs uint32 = 10
	// WaveStepMs is the clock divider for the wave, 400 steps per cycle.
	WaveStepMs uint32 = 10
	// InterpolateMs is the clock divider for the cycling colour blend,
	// colour.InterpolateSteps steps per palette transition.
	InterpolateMs uint32 = 20

	// DefaultChaseTail is the number of dimmed OUTER pixels trailing the
	// chasing marker.
	DefaultChaseTail = 2
	// ChaseTailPercent is the tail's share of the current brightness.
	ChaseTailPercent = 25

	breathingPeriod = 200
	wavePeriod      = 400
	wavePhase       = 100
)

// Animation draws one complete frame into m.
type Animation interface {
	Draw(m *ring.Mapper, s state.State, now uint32)
}

// baseColour is the colour shared by Solid, Chasing and Wave: a cycling
// colour blends smoothly, anything else is constant.
func baseColour(s state.State, now uint32) colour.RGB {
	return colour.Get(s.Colour, colour.Interpolate, now/InterpolateMs)
}

// Solid fills every pixel with the base colour at full brightness.
type Solid struct{}

func (Solid) Draw(m *ring.Mapper, s state.State, now uint32) {
	m.Fill(colour.Scale(baseColour(s, now), int(s.Brightness)))
}

// Breathing fades all pixels up and down along a triangular envelope. A
// cycling colour steps to the next palette entry on every breath.
type Breathing struct{}

func (Breathing) Draw(m *ring.Mapper, s state.State, now uint32) {
	counter := now / BreathingStepMs
	t := int(counter % breathingPeriod)
	if t > breathingPeriod/2 {
		t = breathingPeriod - t
	}
	envelope := t * int(s.Brightness) / (breathingPeriod / 2)
	c := colour.Get(s.Colour, colour.Step, counter/breathingPeriod)
	m.Fill(colour.Scale(c, envelope))
}

// Chasing rotates a marker around the OUTER ring, one degree per
// BreathingStepMs, while INNER and MIDDLE stay lit. Tail pixels follow
// the marker at one OUTER step each, wrapping through 0°.
type Chasing struct {
	Tail int
}

func (a Chasing) Draw(m *ring.Mapper, s state.State, now uint32) {
	base := baseColour(s, now)
	full := colour.Scale(base, int(s.Brightness))
	dim := colour.Scale(base, int(s.Brightness)*ChaseTailPercent/100)

	m.SetRing(ring.Inner, full)
	m.SetRing(ring.Middle, full)
	m.SetRing(ring.Outer, colour.RGB{})

	angle := int((now / BreathingStepMs) % 360)
	step := m.Geometry().OuterStep
	for k := a.Tail; k >= 1; k-- {
		m.SetLed(ring.Outer, angle-k*step, dim)
	}
	m.SetLed(ring.Outer, angle, full)
}

// Wave sends a pulse from the centre to the edge: INNER fades in, then
// each ring fades out while the next one fades in, then OUTER fades out.
type Wave struct{}

func (Wave) Draw(m *ring.Mapper, s state.State, now uint32) {
	p := int((now / WaveStepMs) % wavePeriod)
	r := p % wavePhase
	b := int(s.Brightness)
	up := r * b / wavePhase
	down := (wavePhase - r) * b / wavePhase

	levels := [wavePeriod / wavePhase][ring.Count]int{
		{up, 0, 0},
		{down, up, 0},
		{0, down, up},
		{0, 0, down},
	}[p/wavePhase]

	c := baseColour(s, now)
	for i, level := range levels {
		m.SetRing(ring.Ring(i), colour.Scale(c, level))
	}
}
