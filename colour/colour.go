// Package colour holds the ornament's palette and the functions that turn
// a logical colour plus a clock-derived phase into an RGB value.
package colour

import "fmt"

// Colour is the logical colour selected with single taps.
type Colour uint8

const (
	Pink Colour = iota
	Red
	Orange
	Yellow
	Green
	Cyan
	Blue
	Purple
	// Cycling walks through the concrete colours driven by the clock.
	Cycling
)

// Count is the number of Colour values, Cycling included.
const Count = int(Cycling) + 1

// PaletteSize is the number of concrete colours Cycling walks through.
const PaletteSize = int(Cycling)

var names = [Count]string{
	Pink:    "PINK",
	Red:     "RED",
	Orange:  "ORANGE",
	Yellow:  "YELLOW",
	Green:   "GREEN",
	Cyan:    "CYAN",
	Blue:    "BLUE",
	Purple:  "PURPLE",
	Cycling: "CYCLING",
}

func (c Colour) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Colour(%d)", uint8(c))
	}
	return names[c]
}

func (c Colour) Valid() bool {
	return int(c) < Count
}

// Next returns the colour following c and whether the advance wrapped
// back to the first colour.
func (c Colour) Next() (Colour, bool) {
	next := (int(c) + 1) % Count
	return Colour(next), next == 0
}

// RGB is one pixel value, 8 bits per channel.
type RGB struct {
	Red   uint8 `json:"red"`
	Green uint8 `json:"green"`
	Blue  uint8 `json:"blue"`
}

// True if all components are zero
func (c RGB) IsEmpty() bool {
	return c.Red == 0 && c.Green == 0 && c.Blue == 0
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.Red, c.Green, c.Blue)
}

// Palette is the lookup table of the concrete colours. Cycling has no entry.
var Palette = [PaletteSize]RGB{
	Pink:   {255, 192, 203},
	Red:    {255, 0, 0},
	Orange: {255, 69, 0},
	Yellow: {255, 255, 0},
	Green:  {0, 255, 0},
	Cyan:   {0, 255, 255},
	Blue:   {0, 0, 255},
	Purple: {128, 0, 128},
}

func (c Colour) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Colour) UnmarshalText(text []byte) error {
	for i, name := range names {
		if name == string(text) {
			*c = Colour(i)
			return nil
		}
	}
	return fmt.Errorf("unknown colour %q", text)
}
