package platform

import (
	"log/slog"
	"slices"
	"sync"

	"lautenbacher.net/ornament/ring"
	"lautenbacher.net/ornament/util"
)

// AbstractPlatform carries what the hardware and the TUI platform share:
// the display goroutine fed with the newest frame and the debounced
// button.
type AbstractPlatform struct {
	frames         *util.AtomicEvent[ring.Frame]
	displayFunc    func(ring.Frame) error
	readButton     func() bool
	debouncer      *Debouncer
	displayWg      sync.WaitGroup
	displayStop    chan struct{}
	readyChan      chan bool
	shutdownMutex  sync.RWMutex
	isShuttingDown bool
	errMutex       sync.Mutex
	displayErr     error
}

func newAbstractPlatform(debounce int, displayFunc func(ring.Frame) error, readButton func() bool) *AbstractPlatform {
	return &AbstractPlatform{
		frames:      util.NewAtomicEvent[ring.Frame](),
		displayFunc: displayFunc,
		readButton:  readButton,
		debouncer:   NewDebouncer(debounce),
		displayStop: make(chan struct{}),
		readyChan:   make(chan bool),
	}
}

func (s *AbstractPlatform) Ready() <-chan bool {
	return s.readyChan
}

// Commit queues a copy of frame for the display goroutine. Frames that
// arrive faster than the display can take them replace each other.
func (s *AbstractPlatform) Commit(frame ring.Frame) error {
	s.frames.Send(slices.Clone(frame))
	s.errMutex.Lock()
	defer s.errMutex.Unlock()
	err := s.displayErr
	s.displayErr = nil
	return err
}

func (s *AbstractPlatform) ButtonHeld() bool {
	return s.debouncer.Update(s.readButton())
}

func (s *AbstractPlatform) startDisplay() {
	s.displayWg.Add(1)
	go s.displayDriver()
}

func (s *AbstractPlatform) stopDisplay() {
	s.shutdownMutex.Lock()
	if s.isShuttingDown {
		s.shutdownMutex.Unlock()
		return
	}
	s.isShuttingDown = true
	s.shutdownMutex.Unlock()

	close(s.displayStop)
	s.displayWg.Wait()
}

func (s *AbstractPlatform) displayDriver() {
	defer s.displayWg.Done()
	for {
		select {
		case <-s.displayStop:
			slog.Info("Ending DisplayDriver go-routine...")
			return
		case <-s.frames.Channel():
			frame := s.frames.Value()
			s.shutdownMutex.RLock()
			if !s.isShuttingDown {
				if err := s.displayFunc(frame); err != nil {
					s.errMutex.Lock()
					s.displayErr = err
					s.errMutex.Unlock()
				}
			}
			s.shutdownMutex.RUnlock()
		}
	}
}
