package platform

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"

	"lautenbacher.net/ornament/config"
	"lautenbacher.net/ornament/ring"
)

// RaspberryPiPlatform drives the pixel string over SPI0 and reads the
// button from a GPIO input with the internal pull-up.
type RaspberryPiPlatform struct {
	*AbstractPlatform
	config    *config.Config
	ledDriver LEDDriver
	button    rpio.Pin
	spiMutex  sync.Mutex
	opened    bool
}

func NewRaspberryPiPlatform(conf *config.Config) *RaspberryPiPlatform {
	inst := &RaspberryPiPlatform{
		config: conf,
		button: rpio.Pin(conf.Hardware.ButtonGPIO),
	}
	inst.AbstractPlatform = newAbstractPlatform(conf.Hardware.DebounceSamples, inst.DisplayFrame, inst.readButton)
	return inst
}

func (s *RaspberryPiPlatform) Start() error {
	slog.Info("Initialise GPIO and SPI...", "ledType", s.config.Hardware.LEDType, "button", s.config.Hardware.ButtonGPIO)
	driver, err := NewLEDDriver(s.config.Hardware.LEDType, s.config.Hardware.Display)
	if err != nil {
		return err
	}
	s.ledDriver = driver

	if err := rpio.Open(); err != nil {
		return fmt.Errorf("failed to open rpio: %w", err)
	}
	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		rpio.Close()
		return fmt.Errorf("failed to begin spi: %w", err)
	}
	rpio.SpiSpeed(s.config.Hardware.SPIFrequency)
	s.opened = true

	s.button.Input()
	if s.config.Hardware.ButtonActiveLow {
		s.button.PullUp()
	} else {
		s.button.PullDown()
	}

	s.startDisplay()
	close(s.readyChan)
	return nil
}

// Stop blanks the LEDs before releasing the bus.
func (s *RaspberryPiPlatform) Stop() {
	s.stopDisplay()
	if !s.opened {
		return
	}
	if err := s.DisplayFrame(make(ring.Frame, s.config.Geometry().PixelCount())); err != nil {
		slog.Error("Error blanking LEDs", "error", err)
	}
	s.opened = false
	rpio.SpiEnd(rpio.Spi0)
	if err := rpio.Close(); err != nil {
		slog.Error("Error closing rpio", "error", err)
	}
}

func (s *RaspberryPiPlatform) DisplayFrame(frame ring.Frame) error {
	data := s.ledDriver.Encode(frame)
	s.spiMutex.Lock()
	defer s.spiMutex.Unlock()
	rpio.SpiTransmit(data...)
	return nil
}

func (s *RaspberryPiPlatform) readButton() bool {
	level := s.button.Read()
	if s.config.Hardware.ButtonActiveLow {
		return level == rpio.Low
	}
	return level == rpio.High
}
