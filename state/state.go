// Package state owns the ornament's current and previous state and applies
// gestures to them.
package state

import (
	"fmt"

	"lautenbacher.net/ornament/colour"
)

// Mode is the animation selected once the colours have been cycled through.
type Mode uint8

const (
	Solid Mode = iota
	Breathing
	Chasing
	Wave
)

// ModeCount is the number of Mode values.
const ModeCount = int(Wave) + 1

var modeNames = [ModeCount]string{
	Solid:     "SOLID",
	Breathing: "BREATHING",
	Chasing:   "CHASING",
	Wave:      "WAVE",
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
	return modeNames[m]
}

func (m Mode) Valid() bool {
	return int(m) < ModeCount
}

// Next returns the mode following m and whether it wrapped to the first.
func (m Mode) Next() (Mode, bool) {
	next := (int(m) + 1) % ModeCount
	return Mode(next), next == 0
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	for i, name := range modeNames {
		if name == string(text) {
			*m = Mode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", text)
}

const (
	MinBrightness     = 1
	MaxBrightness     = 100
	DefaultBrightness = MaxBrightness
)

// State is everything the renderer and the gesture logic need to know.
type State struct {
	// Brightness is the upper brightness limit in percent, 1 to 100.
	Brightness  uint8         `json:"brightness"`
	Colour      colour.Colour `json:"colour"`
	Mode        Mode          `json:"mode"`
	On          bool          `json:"on"`
	LongPress   bool          `json:"longPress"`
	LastRelease uint32        `json:"lastRelease"`
}

// Default returns the start-up state.
func Default(on bool) State {
	return State{
		Brightness: DefaultBrightness,
		Colour:     colour.Pink,
		Mode:       Solid,
		On:         on,
	}
}

// Valid reports whether colour and mode are inside their ranges.
func (s State) Valid() bool {
	return s.Colour.Valid() && s.Mode.Valid()
}

func (s State) String() string {
	return fmt.Sprintf("on=%t colour=%s mode=%s brightness=%d longPress=%t", s.On, s.Colour, s.Mode, s.Brightness, s.LongPress)
}
