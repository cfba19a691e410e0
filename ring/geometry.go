// Package ring maps logical (ring, angle) positions of the ornament onto
// physical pixel indices and collects them into one frame per tick.
package ring

import (
	"errors"
	"fmt"
)

// Ring is one of the concentric LED groups.
type Ring uint8

const (
	Inner Ring = iota
	Middle
	Outer
)

// Count is the number of rings.
const Count = 3

var ringNames = [Count]string{Inner: "INNER", Middle: "MIDDLE", Outer: "OUTER"}

func (r Ring) String() string {
	if int(r) >= Count {
		return fmt.Sprintf("Ring(%d)", uint8(r))
	}
	return ringNames[r]
}

// Geometry describes the physical wiring: INNER is index 0, MIDDLE follows
// it and OUTER follows MIDDLE, rotated by OuterOffset positions because
// the ring's first pixel does not sit at logical angle 0.
type Geometry struct {
	InnerCount  int
	MiddleCount int
	OuterCount  int
	MiddleStep  int // degrees between MIDDLE pixels
	OuterStep   int // degrees between OUTER pixels
	OuterOffset int // OUTER index offset in pixels
}

// DefaultGeometry is the 19 pixel jewel-plus-ring ornament.
var DefaultGeometry = Geometry{
	InnerCount:  1,
	MiddleCount: 6,
	OuterCount:  12,
	MiddleStep:  60,
	OuterStep:   30,
	OuterOffset: 3,
}

// PixelCount is the total number of pixels.
func (g Geometry) PixelCount() int {
	return g.InnerCount + g.MiddleCount + g.OuterCount
}

// JewelCount is the number of pixels before the OUTER ring.
func (g Geometry) JewelCount() int {
	return g.InnerCount + g.MiddleCount
}

// Step returns the angular distance between neighbouring pixels of r. The
// single INNER pixel covers the full circle.
func (g Geometry) Step(r Ring) int {
	switch r {
	case Middle:
		return g.MiddleStep
	case Outer:
		return g.OuterStep
	default:
		return 360
	}
}

// Size returns the number of pixels in r.
func (g Geometry) Size(r Ring) int {
	switch r {
	case Middle:
		return g.MiddleCount
	case Outer:
		return g.OuterCount
	default:
		return g.InnerCount
	}
}

// Validate checks that every ring's pixels cover exactly one circle.
func (g Geometry) Validate() error {
	if g.InnerCount != 1 {
		return errors.New("inner ring must have exactly one pixel")
	}
	if g.MiddleCount <= 0 || g.MiddleStep <= 0 || g.MiddleCount*g.MiddleStep != 360 {
		return fmt.Errorf("middle ring: %d pixels at %d° do not cover 360°", g.MiddleCount, g.MiddleStep)
	}
	if g.OuterCount <= 0 || g.OuterStep <= 0 || g.OuterCount*g.OuterStep != 360 {
		return fmt.Errorf("outer ring: %d pixels at %d° do not cover 360°", g.OuterCount, g.OuterStep)
	}
	if g.OuterOffset < 0 || g.OuterOffset >= g.OuterCount {
		return fmt.Errorf("outer offset %d must be between 0 and %d", g.OuterOffset, g.OuterCount-1)
	}
	return nil
}

// NormaliseAngle reduces angle to [0, 360).
func NormaliseAngle(angle int) int {
	angle %= 360
	if angle < 0 {
		angle += 360
	}
	return angle
}

// Index returns the physical pixel index for angle on ring r.
func (g Geometry) Index(r Ring, angle int) int {
	angle = NormaliseAngle(angle)
	switch r {
	case Middle:
		return g.InnerCount + angle/g.MiddleStep
	case Outer:
		index := g.JewelCount() + angle/g.OuterStep + g.OuterOffset
		if index >= g.PixelCount() {
			index -= g.OuterCount
		}
		return index
	default:
		return 0
	}
}
