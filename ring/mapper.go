package ring

import (
	"fmt"

	"lautenbacher.net/ornament/colour"
)

// Frame holds one colour per physical pixel.
type Frame []colour.RGB

// Committer pushes a complete frame to the LEDs.
type Committer interface {
	Commit(frame Frame) error
}

// Mapper writes ring positions into an in-memory frame. Nothing reaches
// the hardware until Commit, which hands over the whole frame at once.
type Mapper struct {
	geometry  Geometry
	frame     Frame
	committer Committer
}

func NewMapper(geometry Geometry, committer Committer) *Mapper {
	return &Mapper{
		geometry:  geometry,
		frame:     make(Frame, geometry.PixelCount()),
		committer: committer,
	}
}

func (m *Mapper) Geometry() Geometry {
	return m.geometry
}

// SetLed sets the pixel at angle on ring r.
func (m *Mapper) SetLed(r Ring, angle int, c colour.RGB) {
	m.frame[m.geometry.Index(r, angle)] = c
}

// SetRing sets every pixel of ring r to c.
func (m *Mapper) SetRing(r Ring, c colour.RGB) {
	step := m.geometry.Step(r)
	for angle := 0; angle < 360; angle += step {
		m.SetLed(r, angle, c)
	}
}

// Fill sets every pixel to c.
func (m *Mapper) Fill(c colour.RGB) {
	for i := range m.frame {
		m.frame[i] = c
	}
}

// Clear turns every pixel off.
func (m *Mapper) Clear() {
	clear(m.frame)
}

// Frame returns a copy of the frame under construction.
func (m *Mapper) Frame() Frame {
	ret := make(Frame, len(m.frame))
	copy(ret, m.frame)
	return ret
}

// Commit hands a copy of the frame to the committer. Call it once per
// tick, after the frame is complete.
func (m *Mapper) Commit() error {
	if m.committer == nil {
		return nil
	}
	if err := m.committer.Commit(m.Frame()); err != nil {
		return fmt.Errorf("commit frame: %w", err)
	}
	return nil
}
