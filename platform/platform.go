package platform

import (
	"lautenbacher.net/ornament/ring"
)

// Platform abstracts the real hardware from the TUI simulation. The tick
// loop samples the button and commits one frame per tick.
type Platform interface {
	// Start opens the hardware or starts the TUI.
	Start() error

	// Stop releases all platform resources.
	Stop()

	// Ready is closed once the platform can display frames.
	Ready() <-chan bool

	// Commit hands a finished frame to the display. It does not block; an
	// error reports a failure of an earlier asynchronous write.
	Commit(frame ring.Frame) error

	// ButtonHeld returns the debounced button level. It is meant to be
	// called once per tick.
	ButtonHeld() bool
}
