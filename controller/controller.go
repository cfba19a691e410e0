// Package controller runs one tick of the ornament: button sample to
// gesture, gesture to state, state to frame, frame to the LEDs.
package controller

import (
	"errors"
	"fmt"
	"log/slog"

	"lautenbacher.net/ornament/animation"
	"lautenbacher.net/ornament/gesture"
	"lautenbacher.net/ornament/ring"
	"lautenbacher.net/ornament/state"
)

// Renderer draws the frame for a state at a point in time.
type Renderer interface {
	Render(s state.State, now uint32) error
}

// Observer is told about recognised gestures, state changes and resets.
// Observers run synchronously inside the tick and must not block.
type Observer interface {
	GestureRecognised(ev gesture.Event, s state.State)
	StateChanged(s state.State)
	StateReset(cause error)
}

// Settings are the per-installation parameters of the pipeline.
type Settings struct {
	StartOn   bool
	ChaseTail int
	Geometry  ring.Geometry
}

// DefaultSettings starts switched on with the default ring geometry.
func DefaultSettings() Settings {
	return Settings{
		StartOn:   true,
		ChaseTail: animation.DefaultChaseTail,
		Geometry:  ring.DefaultGeometry,
	}
}

// Opt configures a Controller.
type Opt func(*Controller)

// WithObserver registers an observer.
func WithObserver(o Observer) Opt {
	return func(c *Controller) {
		c.observers = append(c.observers, o)
	}
}

// WithRenderer replaces the animation renderer.
func WithRenderer(r Renderer) Opt {
	return func(c *Controller) {
		c.renderer = r
	}
}

// WithState resumes from a previously saved state, e.g. after a reload.
func WithState(s state.State) Opt {
	return func(c *Controller) {
		if s.Valid() {
			c.machine = state.ResumeMachine(s)
		}
	}
}

// Controller owns the recognizer, the state machine, the renderer and the
// frame. It is not safe for concurrent use; one goroutine drives Tick.
type Controller struct {
	recognizer *gesture.Recognizer
	machine    *state.Machine
	mapper     *ring.Mapper
	renderer   Renderer
	observers  []Observer
	last       state.State
}

func New(settings Settings, committer ring.Committer, opts ...Opt) (*Controller, error) {
	if err := settings.Geometry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ring geometry: %w", err)
	}
	mapper := ring.NewMapper(settings.Geometry, committer)
	c := &Controller{
		recognizer: gesture.NewRecognizer(),
		machine:    state.NewMachine(settings.StartOn),
		mapper:     mapper,
		renderer:   animation.NewRenderer(mapper, settings.ChaseTail),
	}
	for _, opt := range opts {
		opt(c)
	}
	// observers start from the initial state, not from the first change
	c.last = c.machine.State()
	for _, o := range c.observers {
		o.StateChanged(c.last)
	}
	return c, nil
}

// State returns the current state.
func (c *Controller) State() state.State {
	return c.machine.State()
}

// Frame returns a copy of the last rendered frame.
func (c *Controller) Frame() ring.Frame {
	return c.mapper.Frame()
}

// Tick processes one button sample taken at now and commits one frame.
func (c *Controller) Tick(held bool, now uint32) error {
	s := c.machine.State()
	ev := c.recognizer.Update(gesture.Sample{
		Held:        held,
		Now:         now,
		On:          s.On,
		LastRelease: s.LastRelease,
	})
	if ev != nil {
		c.machine.Apply(ev)
		slog.Debug("Gesture", "kind", ev.Kind(), "now", now, "state", c.machine.State().String())
		for _, o := range c.observers {
			o.GestureRecognised(ev, c.machine.State())
		}
	}

	if !c.machine.Validate() {
		c.reset(errors.New("state out of range"))
	}

	if err := c.renderer.Render(c.machine.State(), now); err != nil {
		if !errors.Is(err, animation.ErrUnknownMode) && !errors.Is(err, animation.ErrUnknownColour) {
			return fmt.Errorf("render: %w", err)
		}
		c.machine.Reset()
		c.reset(err)
		c.mapper.Clear()
	}

	c.notifyStateChange()
	return c.mapper.Commit()
}

func (c *Controller) reset(cause error) {
	slog.Warn("Resetting ornament state", "cause", cause)
	c.recognizer.Reset()
	for _, o := range c.observers {
		o.StateReset(cause)
	}
}

// notifyStateChange reports the state once per tick if it differs from
// the last reported one, ignoring the brightness jitter of a long press.
func (c *Controller) notifyStateChange() {
	s := c.machine.State()
	if s == c.last {
		return
	}
	if s.LongPress && c.last.LongPress {
		c.last = s
		return
	}
	c.last = s
	slog.Info("State changed", "state", s.String())
	for _, o := range c.observers {
		o.StateChanged(s)
	}
}
