package platform

import (
	"fmt"
	"math"
	"strings"

	"lautenbacher.net/ornament/colour"
	"lautenbacher.net/ornament/config"
	"lautenbacher.net/ornament/ring"
)

// LEDDriver turns a frame into the bytes clocked out on the SPI bus.
type LEDDriver interface {
	Encode(frame ring.Frame) []byte
}

func NewLEDDriver(ledType string, display config.DisplayConfig) (LEDDriver, error) {
	switch strings.ToUpper(ledType) {
	case config.APA102:
		return &APA102Driver{correction: correction(display), brightness: display.APA102_Brightness}, nil
	case config.WS2801:
		return &WS2801Driver{correction: correction(display)}, nil
	case config.WS2812:
		return &WS2812Driver{correction: correction(display)}, nil
	default:
		return nil, fmt.Errorf("unknown LED type: %s", ledType)
	}
}

type colourCorrection [3]float64

func correction(display config.DisplayConfig) colourCorrection {
	cc := colourCorrection{1, 1, 1}
	copy(cc[:], display.ColorCorrection)
	return cc
}

func (cc colourCorrection) apply(c colour.RGB) (byte, byte, byte) {
	return scaleChannel(c.Red, cc[0]), scaleChannel(c.Green, cc[1]), scaleChannel(c.Blue, cc[2])
}

func scaleChannel(v uint8, f float64) byte {
	return byte(math.Min(float64(v)*f, 255))
}

// WS2801Driver sends plain RGB triplets; the chip latches after a pause.
type WS2801Driver struct {
	correction colourCorrection
}

func (d *WS2801Driver) Encode(frame ring.Frame) []byte {
	display := make([]byte, 3*len(frame))
	for i, c := range frame {
		display[3*i], display[3*i+1], display[3*i+2] = d.correction.apply(c)
	}
	return display
}

// APA102Driver frames the pixels with a start and end frame and sends a
// global brightness with every pixel.
type APA102Driver struct {
	correction colourCorrection
	brightness uint8
}

func (d *APA102Driver) Encode(frame ring.Frame) []byte {
	// start frame, 4 bytes per pixel, end frame of len/16+1 bytes
	display := make([]byte, 0, 4+4*len(frame)+len(frame)/16+1)
	display = append(display, 0x00, 0x00, 0x00, 0x00)

	brightness := (d.brightness & 0x1F) | 0xE0
	for _, c := range frame {
		red, green, blue := d.correction.apply(c)
		display = append(display, brightness, blue, green, red)
	}

	for range len(frame)/16 + 1 {
		display = append(display, 0xFF)
	}
	return display
}

// ws2812Reset is the latch pause in zero bytes: 280µs at 2.4MHz.
const ws2812Reset = 84

// WS2812Driver emulates the single wire WS2812 protocol on MOSI. Every data
// bit becomes three SPI bits, 110 for a one and 100 for a zero, so the bus
// has to run at 2.4MHz. Pixels are sent in GRB order.
type WS2812Driver struct {
	correction colourCorrection
}

func (d *WS2812Driver) Encode(frame ring.Frame) []byte {
	display := make([]byte, 0, 9*len(frame)+ws2812Reset)
	for _, c := range frame {
		red, green, blue := d.correction.apply(c)
		display = appendWS2812(display, green)
		display = appendWS2812(display, red)
		display = appendWS2812(display, blue)
	}
	return append(display, make([]byte, ws2812Reset)...)
}

func appendWS2812(display []byte, b byte) []byte {
	var bits uint32
	for i := 7; i >= 0; i-- {
		if b&(1<<i) != 0 {
			bits = bits<<3 | 0b110
		} else {
			bits = bits<<3 | 0b100
		}
	}
	return append(display, byte(bits>>16), byte(bits>>8), byte(bits))
}
