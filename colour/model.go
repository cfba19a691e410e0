package colour

// PhaseMode selects how Cycling turns a phase value into a colour.
type PhaseMode uint8

const (
	// Step jumps from one palette entry to the next.
	Step PhaseMode = iota
	// Interpolate blends linearly between neighbouring palette entries,
	// 100 phase units per transition.
	Interpolate
)

// InterpolateSteps is the number of phase units per palette transition.
const InterpolateSteps = 100

// source produces the RGB value for one Colour.
type source interface {
	rgb(mode PhaseMode, phase uint32) RGB
}

type fixed RGB

func (f fixed) rgb(PhaseMode, uint32) RGB {
	return RGB(f)
}

type cycling struct{}

func (cycling) rgb(mode PhaseMode, phase uint32) RGB {
	const n = uint32(PaletteSize)
	if mode == Step {
		return Palette[phase%n]
	}
	index := (phase / InterpolateSteps) % n
	p := phase % InterpolateSteps
	return Blend(Palette[index], Palette[(index+1)%n], p)
}

var sources = [Count]source{
	Pink:    fixed(Palette[Pink]),
	Red:     fixed(Palette[Red]),
	Orange:  fixed(Palette[Orange]),
	Yellow:  fixed(Palette[Yellow]),
	Green:   fixed(Palette[Green]),
	Cyan:    fixed(Palette[Cyan]),
	Blue:    fixed(Palette[Blue]),
	Purple:  fixed(Palette[Purple]),
	Cycling: cycling{},
}

// Get returns the RGB value of c. The phase is only used by Cycling.
// An out of range colour yields black.
func Get(c Colour, mode PhaseMode, phase uint32) RGB {
	if !c.Valid() {
		return RGB{}
	}
	return sources[c].rgb(mode, phase)
}

// Blend mixes from and to with weight p/100 on to, truncating per channel.
func Blend(from, to RGB, p uint32) RGB {
	if p > InterpolateSteps {
		p = InterpolateSteps
	}
	mix := func(a, b uint8) uint8 {
		return uint8((uint32(a)*(InterpolateSteps-p) + uint32(b)*p) / InterpolateSteps)
	}
	return RGB{
		Red:   mix(from.Red, to.Red),
		Green: mix(from.Green, to.Green),
		Blue:  mix(from.Blue, to.Blue),
	}
}

// Scale applies a linear brightness in percent to every channel. No gamma
// correction; percentages above 100 are treated as 100.
func Scale(c RGB, percent int) RGB {
	if percent <= 0 {
		return RGB{}
	}
	if percent > 100 {
		percent = 100
	}
	p := uint32(percent)
	return RGB{
		Red:   uint8(uint32(c.Red) * p / 100),
		Green: uint8(uint32(c.Green) * p / 100),
		Blue:  uint8(uint32(c.Blue) * p / 100),
	}
}
