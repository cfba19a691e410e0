package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lautenbacher.net/ornament/colour"
	c "lautenbacher.net/ornament/config"
	pl "lautenbacher.net/ornament/platform"
	"lautenbacher.net/ornament/ring"
	"lautenbacher.net/ornament/state"
)

type MockPlatform struct {
	mu       sync.Mutex
	frames   []ring.Frame
	held     []bool
	started  bool
	stopped  bool
	startErr error
}

func (m *MockPlatform) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	return m.startErr
}

func (m *MockPlatform) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *MockPlatform) Ready() <-chan bool {
	readyChan := make(chan bool)
	close(readyChan)
	return readyChan
}

func (m *MockPlatform) Commit(frame ring.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, append(ring.Frame(nil), frame...))
	return nil
}

// ButtonHeld replays the scripted samples, then reports released.
func (m *MockPlatform) ButtonHeld() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.held) == 0 {
		return false
	}
	h := m.held[0]
	m.held = m.held[1:]
	return h
}

func (m *MockPlatform) script(samples ...bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held = append(m.held, samples...)
}

func (m *MockPlatform) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

func (m *MockPlatform) frameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

func (m *MockPlatform) lastFrame() ring.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames[len(m.frames)-1]
}

// stepClock advances 10ms on every read, one tick's worth.
type stepClock struct {
	now atomic.Uint32
}

func (s *stepClock) Millis() uint32 {
	return s.now.Add(10)
}

func repeat(v bool, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = v
	}
	return out
}

type testApp struct {
	*App
	platforms []*MockPlatform
	mu        sync.Mutex
}

func (t *testApp) platformCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.platforms)
}

func (t *testApp) current() *MockPlatform {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.platforms[len(t.platforms)-1]
}

func newTestApp() *testApp {
	ta := &testApp{App: NewApp(make(chan os.Signal, 1), &stepClock{})}
	ta.newPlatform = func(*c.Config, chan os.Signal) pl.Platform {
		ta.mu.Lock()
		defer ta.mu.Unlock()
		m := &MockPlatform{}
		ta.platforms = append(ta.platforms, m)
		return m
	}
	return ta
}

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	cfile := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(cfile, []byte(data), 0o644))
	return cfile
}

const testConfig = `
Ornament:
  StartOn: true
  TickDelay: 1ms
  ChaseTail: 2
`

func TestTick_TapAdvancesColour(t *testing.T) {
	app := newTestApp()
	conf := c.Default()
	require.NoError(t, app.initialise(&conf, nil))
	// the tick loop must not race the manual ticks below
	close(app.stopsignal)
	app.shutdownWg.Wait()
	app.stopsignal = nil
	defer app.shutdown()

	m := app.current()
	before := m.frameCount()
	m.script(append(repeat(true, 10), repeat(false, 5)...)...)
	for range 15 {
		app.tick()
	}

	assert.Equal(t, before+15, m.frameCount(), "one frame per tick")
	assert.Equal(t, colour.Red, app.currentState().Colour)
	assert.Equal(t, state.Solid, app.currentState().Mode)
	for _, px := range m.lastFrame() {
		assert.Equal(t, colour.Palette[colour.Red], px)
	}
	assert.False(t, app.tickFailing)
}

func TestStateHandler(t *testing.T) {
	app := newTestApp()
	s := state.Default(true)
	s.Colour = colour.Blue
	app.StateChanged(s)
	app.config = &c.Config{}

	w := httptest.NewRecorder()
	app.routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got state.State
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, s, got)

	w = httptest.NewRecorder()
	app.routes().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/state", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestMetricsRoute(t *testing.T) {
	app := newTestApp()
	app.config = &c.Config{}
	app.metrics.Tick(nil)

	w := httptest.NewRecorder()
	app.routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ornament_ticks_total")
}

func TestMetricsReportInitialState(t *testing.T) {
	app := newTestApp()
	conf := c.Default()
	require.NoError(t, app.initialise(&conf, nil))
	close(app.stopsignal)
	app.shutdownWg.Wait()
	app.stopsignal = nil
	defer app.shutdown()

	// idle ticks do not notify, so the gauges come from the initial state
	w := httptest.NewRecorder()
	app.routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ornament_state_on 1")
	assert.Contains(t, w.Body.String(), "ornament_state_brightness_percent 100")
	assert.Equal(t, state.Default(true), app.currentState())
}

func TestRun_ReloadKeepsStateAndInterruptStops(t *testing.T) {
	conf, err := c.ReadConfig(writeConfig(t, testConfig))
	require.NoError(t, err)

	app := newTestApp()
	done := make(chan int, 1)
	go func() { done <- app.Run(conf) }()

	require.Eventually(t, func() bool {
		return app.platformCount() == 1 && app.current().frameCount() > 5
	}, 2*time.Second, 5*time.Millisecond)

	// tap once: PINK -> RED
	app.current().script(append(repeat(true, 5), repeat(false, 5)...)...)
	require.Eventually(t, func() bool {
		return app.currentState().Colour == colour.Red
	}, 2*time.Second, 5*time.Millisecond)

	first := app.current()
	app.ossignal <- syscall.SIGHUP
	require.Eventually(t, func() bool {
		return app.platformCount() == 2 && app.current().frameCount() > 0
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, first.isStopped())
	assert.Equal(t, colour.Red, app.currentState().Colour, "state survives the reload")

	app.ossignal <- os.Interrupt
	select {
	case code := <-done:
		assert.Equal(t, 0, code)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.True(t, app.current().isStopped())
}

func TestRun_PlatformStartFails(t *testing.T) {
	app := newTestApp()
	inner := app.newPlatform
	app.newPlatform = func(conf *c.Config, sig chan os.Signal) pl.Platform {
		m := inner(conf, sig).(*MockPlatform)
		m.startErr = assert.AnError
		return m
	}
	conf := c.Default()
	assert.Equal(t, 1, app.Run(&conf))
	assert.True(t, app.current().isStopped())
}
