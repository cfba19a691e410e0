package platform

import (
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"lautenbacher.net/ornament/colour"
	"lautenbacher.net/ornament/config"
	"lautenbacher.net/ornament/logging"
	"lautenbacher.net/ornament/ring"
)

const (
	tapLength      = 100 * time.Millisecond
	tapGap         = 150 * time.Millisecond
	longPressHold  = 2 * time.Second
	ringGridRadius = 5
)

// radius of each ring in grid cells; a cell is two characters wide
var ringRadius = [ring.Count]float64{
	ring.Inner:  0,
	ring.Middle: 2.5,
	ring.Outer:  ringGridRadius,
}

// pulse is a scripted button press, held from start until end.
type pulse struct {
	start, end time.Time
}

// TUIPlatform simulates the ornament in the terminal. The keyboard has no
// key release events, so holding is a toggle and taps are scripted pulses.
type TUIPlatform struct {
	*AbstractPlatform
	config       *config.Config
	geometry     ring.Geometry
	tviewapp     *tview.Application
	intro        *tview.TextView
	ringDisplay  *tview.TextView
	logView      *tview.TextView
	ossignalChan chan os.Signal
	logFlushOnce sync.Once
	buttonMutex  sync.Mutex
	holding      bool
	pulses       []pulse
	now          func() time.Time
}

func NewTUIPlatform(conf *config.Config, ossignalchan chan os.Signal) *TUIPlatform {
	inst := &TUIPlatform{
		config:       conf,
		geometry:     conf.Geometry(),
		ossignalChan: ossignalchan,
		now:          time.Now,
	}
	inst.AbstractPlatform = newAbstractPlatform(conf.Hardware.DebounceSamples, inst.DisplayFrame, inst.readButton)
	return inst
}

func (s *TUIPlatform) Start() error {
	s.initSimulationTUI()
	s.startDisplay()
	return nil
}

func (s *TUIPlatform) Stop() {
	s.stopDisplay()
	if s.tviewapp != nil {
		s.tviewapp.Stop()
	}
}

func (s *TUIPlatform) DisplayFrame(frame ring.Frame) error {
	text := renderRings(s.geometry, frame)
	s.tviewapp.QueueUpdateDraw(func() {
		s.ringDisplay.SetText(text)
		s.intro.SetText(s.getIntroText())
	})
	return nil
}

func (s *TUIPlatform) readButton() bool {
	s.buttonMutex.Lock()
	defer s.buttonMutex.Unlock()

	now := s.now()
	held := s.holding
	live := s.pulses[:0]
	for _, p := range s.pulses {
		if now.Before(p.end) {
			live = append(live, p)
			if !now.Before(p.start) {
				held = true
			}
		}
	}
	s.pulses = live
	return held
}

func (s *TUIPlatform) toggleHold() {
	s.buttonMutex.Lock()
	defer s.buttonMutex.Unlock()
	s.holding = !s.holding
}

// press schedules n presses of length d, tapGap apart.
func (s *TUIPlatform) press(n int, d time.Duration) {
	s.buttonMutex.Lock()
	defer s.buttonMutex.Unlock()
	start := s.now()
	for range n {
		s.pulses = append(s.pulses, pulse{start: start, end: start.Add(d)})
		start = start.Add(d + tapGap)
	}
}

func (s *TUIPlatform) buttonText() string {
	s.buttonMutex.Lock()
	defer s.buttonMutex.Unlock()
	if s.holding {
		return "[#ffff00]HELD[white]"
	}
	return "released"
}

func (s *TUIPlatform) getIntroText() string {
	line1 := fmt.Sprintf("Button: %-8s | Hit [#ff0000]space[white] to hold/release", s.buttonText())
	line2 := "Hit [blue]t[-] to tap, [blue]d[-] to double tap, [blue]l[-] for a long press"
	line3 := "Hit [#ff0000]q[-] to exit, [#ff0000]r[-] to reload, [#ff0000]Up/Down[-] to scroll logs"
	return fmt.Sprintf("%s\n%s\n%s", line1, line2, line3)
}

func (s *TUIPlatform) initSimulationTUI() {
	s.tviewapp = tview.NewApplication()

	s.intro = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.intro.SetText(s.getIntroText())
	s.intro.SetBorder(true).SetTitle(" Ornament Simulation ").SetTitleColor(tcell.ColorLightBlue)
	s.intro.SetBackgroundColor(tcell.NewRGBColor(20, 20, 20))

	s.ringDisplay = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.ringDisplay.SetBorder(true)
	s.ringDisplay.SetBackgroundColor(tcell.NewRGBColor(30, 30, 30))

	s.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() {
			s.logView.ScrollToEnd()
			s.tviewapp.Draw()
		})
	s.logView.SetBorder(true).SetTitle(" Logs ").SetTitleColor(tcell.ColorLightBlue)
	s.logView.SetBackgroundColor(tcell.NewRGBColor(40, 40, 40))

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(s.intro, 5, 0, false).
		AddItem(s.ringDisplay, 2*ringGridRadius+3, 0, false).
		AddItem(s.logView, 0, 1, true)

	s.tviewapp.SetAfterDrawFunc(func(screen tcell.Screen) {
		s.logFlushOnce.Do(func() {
			logging.SetOutput(tview.ANSIWriter(s.logView))
			close(s.readyChan)
		})
	})

	s.tviewapp.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			s.ossignalChan <- os.Interrupt
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case ' ':
				s.toggleHold()
			case 't', 'T':
				s.press(1, tapLength)
			case 'd', 'D':
				s.press(2, tapLength)
			case 'l', 'L':
				s.press(1, longPressHold)
			case 'q', 'Q':
				s.ossignalChan <- os.Interrupt
			case 'r', 'R':
				s.ossignalChan <- syscall.SIGHUP
			default:
				return event
			}
			s.intro.SetText(s.getIntroText())
			return nil
		case tcell.KeyUp:
			row, col := s.logView.GetScrollOffset()
			s.logView.ScrollTo(row-1, col)
			return nil
		case tcell.KeyDown:
			row, col := s.logView.GetScrollOffset()
			s.logView.ScrollTo(row+1, col)
			return nil
		}
		return event
	})

	go func() {
		if err := s.tviewapp.SetRoot(layout, true).Run(); err != nil {
			s.ossignalChan <- os.Interrupt
		}
	}()
}

// renderRings lays the pixels out on a square grid as concentric rings,
// walking every ring by angle so the picture matches the physical order.
func renderRings(g ring.Geometry, frame ring.Frame) string {
	size := 2*ringGridRadius + 1
	grid := make([][]string, size)
	for y := range grid {
		grid[y] = make([]string, size)
		for x := range grid[y] {
			grid[y][x] = "  "
		}
	}

	for r := ring.Inner; r < ring.Count; r++ {
		for angle := 0; angle < 360; angle += g.Step(r) {
			idx := g.Index(r, angle)
			if idx < 0 || idx >= len(frame) {
				continue
			}
			rad := float64(angle) * math.Pi / 180
			x := ringGridRadius + int(math.Round(ringRadius[r]*math.Sin(rad)))
			y := ringGridRadius - int(math.Round(ringRadius[r]*math.Cos(rad)))
			grid[y][x] = pixel(frame[idx])
		}
	}

	var buf strings.Builder
	for _, row := range grid {
		buf.WriteString(strings.Join(row, ""))
		buf.WriteString("\n")
	}
	return buf.String()
}

// pixel picks a glyph by intensity and shows the hue at full scale.
func pixel(c colour.RGB) string {
	if c.IsEmpty() {
		return "[#505050]··[-]"
	}
	level := max(c.Red, c.Green, c.Blue)
	glyph := "██"
	switch {
	case level < 64:
		glyph = "░░"
	case level < 128:
		glyph = "▒▒"
	case level < 192:
		glyph = "▓▓"
	}
	return scaledColor(c) + glyph + "[-]"
}

func scaledColor(c colour.RGB) string {
	maxColor := float64(max(c.Red, c.Green, c.Blue))
	if maxColor == 0 {
		return "[#000000]"
	}
	factor := 255 / maxColor
	scale := func(v uint8) byte {
		return byte(math.Min(math.Round(float64(v)*factor), 255))
	}
	return fmt.Sprintf("[#%02x%02x%02x]", scale(c.Red), scale(c.Green), scale(c.Blue))
}
