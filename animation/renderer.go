package animation

import (
	"errors"
	"fmt"

	"lautenbacher.net/ornament/ring"
	"lautenbacher.net/ornament/state"
)

var (
	ErrUnknownMode   = errors.New("unknown animation mode")
	ErrUnknownColour = errors.New("unknown colour")
)

// Renderer selects the animation for the current mode and draws it into
// the mapper's frame. It never commits; that is the caller's job, once
// per tick.
type Renderer struct {
	mapper     *ring.Mapper
	animations [state.ModeCount]Animation
}

// NewRenderer creates a renderer. chaseTail is clamped to the OUTER ring
// size minus the marker itself.
func NewRenderer(mapper *ring.Mapper, chaseTail int) *Renderer {
	if chaseTail < 0 {
		chaseTail = 0
	}
	if maxTail := mapper.Geometry().OuterCount - 1; chaseTail > maxTail {
		chaseTail = maxTail
	}
	return &Renderer{
		mapper: mapper,
		animations: [state.ModeCount]Animation{
			state.Solid:     Solid{},
			state.Breathing: Breathing{},
			state.Chasing:   Chasing{Tail: chaseTail},
			state.Wave:      Wave{},
		},
	}
}

// Render draws the frame for s at now. A switched off device renders
// black, a long press shows the solid colour so the brightness sweep is
// visible. An out of range mode or colour is reported and nothing is
// drawn.
func (r *Renderer) Render(s state.State, now uint32) error {
	if !s.Mode.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownMode, s.Mode)
	}
	if !s.Colour.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownColour, s.Colour)
	}
	switch {
	case !s.On:
		r.mapper.Clear()
	case s.LongPress:
		r.animations[state.Solid].Draw(r.mapper, s, now)
	default:
		r.animations[s.Mode].Draw(r.mapper, s, now)
	}
	return nil
}
