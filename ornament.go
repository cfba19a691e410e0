package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	c "lautenbacher.net/ornament/config"
	ctl "lautenbacher.net/ornament/controller"
	"lautenbacher.net/ornament/gesture"
	"lautenbacher.net/ornament/logging"
	"lautenbacher.net/ornament/metrics"
	pl "lautenbacher.net/ornament/platform"
	"lautenbacher.net/ornament/publish"
	"lautenbacher.net/ornament/state"
	u "lautenbacher.net/ornament/util"
)

var (
	cfile       = c.CONFILE
	realhw      = false
	clockOffset uint32
)

func init() {
	pflag.StringVarP(&cfile, "config", "c", cfile, "configuration file")
	pflag.BoolVarP(&realhw, "real", "r", realhw, "run on real hardware instead of the TUI simulation")
	pflag.Uint32Var(&clockOffset, "clock-offset", 0, "start the millisecond clock at this value")
}

// App wires the platform, the tick pipeline and the optional web and MQTT
// surfaces. A reload tears everything down except the metrics registry and
// rebuilds it from the new configuration, keeping the ornament state.
type App struct {
	config      *c.Config
	platform    pl.Platform
	controller  *ctl.Controller
	metrics     *metrics.Metrics
	publisher   *publish.Publisher
	server      *http.Server
	watcher     *c.Watcher
	clock       u.Clock
	ossignal    chan os.Signal
	stopsignal  chan struct{}
	shutdownWg  sync.WaitGroup
	newPlatform func(*c.Config, chan os.Signal) pl.Platform
	stateMutex  sync.RWMutex
	state       state.State
	tickFailing bool
	lastMillis  uint32
}

func NewApp(ossignal chan os.Signal, clock u.Clock) *App {
	return &App{
		clock:       clock,
		ossignal:    ossignal,
		metrics:     metrics.New(),
		newPlatform: newPlatform,
	}
}

func newPlatform(conf *c.Config, ossignal chan os.Signal) pl.Platform {
	if conf.RealHW {
		return pl.NewRaspberryPiPlatform(conf)
	}
	return pl.NewTUIPlatform(conf, ossignal)
}

func main() {
	pflag.Parse()
	os.Exit(run())
}

func run() int {
	conf, err := c.ReadConfig(cfile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	conf.RealHW = realhw

	logcfg := conf.Log()
	// the TUI owns the terminal, so its log is shown once the log pane exists
	if err := logging.Init(!realhw, logcfg.Level, logcfg.Format, logcfg.File); err != nil {
		fmt.Fprintf(os.Stderr, "can't initialise logging: %v\n", err)
		return 2
	}
	defer logging.Close()

	ossignal := make(chan os.Signal, 1)
	signal.Notify(ossignal, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(ossignal)

	return NewApp(ossignal, u.NewMonotonicClock(clockOffset)).Run(conf)
}

// Run blocks until an interrupt and returns the process exit code. SIGHUP
// and config file changes reload.
func (a *App) Run(conf *c.Config) int {
	if err := a.initialise(conf, nil); err != nil {
		slog.Error("Failed to start", "error", err)
		a.shutdown()
		return 1
	}
	for sig := range a.ossignal {
		if sig != syscall.SIGHUP {
			slog.Info("Received signal, shutting down", "signal", sig)
			a.shutdown()
			return 0
		}
		if err := a.reload(); err != nil {
			slog.Error("Reload failed", "error", err)
			a.shutdown()
			return 1
		}
	}
	return 0
}

func (a *App) reload() error {
	next, err := c.ReadConfig(a.config.ConfigFile)
	if err != nil {
		slog.Warn("Keeping running configuration", "error", err)
		return nil
	}
	next.RealHW = a.config.RealHW
	saved := a.currentState()
	slog.Info("Reloading configuration", "file", next.ConfigFile)
	a.shutdown()
	return a.initialise(next, &saved)
}

func (a *App) initialise(conf *c.Config, saved *state.State) error {
	a.config = conf
	a.stopsignal = make(chan struct{})

	a.platform = a.newPlatform(conf, a.ossignal)
	if err := a.platform.Start(); err != nil {
		return fmt.Errorf("start platform: %w", err)
	}
	<-a.platform.Ready()

	opts := []ctl.Opt{ctl.WithObserver(a.metrics), ctl.WithObserver(a)}
	if saved != nil {
		opts = append(opts, ctl.WithState(*saved))
	}
	if conf.MQTT.Enabled {
		publisher, err := publish.Connect(conf.MQTT)
		if err != nil {
			// the ornament works without its MQTT output
			slog.Error("MQTT disabled", "error", err)
		} else {
			a.publisher = publisher
			opts = append(opts, ctl.WithObserver(publisher))
		}
	}

	controller, err := ctl.New(ctl.Settings{
		StartOn:   conf.Ornament.StartOn,
		ChaseTail: conf.Ornament.ChaseTail,
		Geometry:  conf.Geometry(),
	}, a.platform, opts...)
	if err != nil {
		return err
	}
	a.controller = controller

	if conf.Web.Enabled {
		a.server = &http.Server{
			Addr:              conf.Web.Address,
			Handler:           a.routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func(srv *http.Server) {
			slog.Info("Starting web server", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Web server failed", "error", err)
			}
		}(a.server)
	}

	if conf.ConfigFile != "" {
		a.watcher = c.NewWatcher(conf.ConfigFile)
		a.watcher.OnReload(func(*c.Config) {
			select {
			case a.ossignal <- syscall.SIGHUP:
			default:
			}
		})
		if err := a.watcher.Start(); err != nil {
			slog.Warn("Config file is not watched", "error", err)
			a.watcher = nil
		}
	}

	a.shutdownWg.Add(1)
	go a.tickLoop(conf.Ornament.TickDelay)
	slog.Info("Ornament running", "realHW", conf.RealHW, "tick", conf.Ornament.TickDelay, "state", a.currentState().String())
	return nil
}

func (a *App) shutdown() {
	if a.stopsignal != nil {
		close(a.stopsignal)
		a.shutdownWg.Wait()
		a.stopsignal = nil
	}
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			slog.Warn("Error stopping config watcher", "error", err)
		}
		a.watcher = nil
	}
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Warn("Error stopping web server", "error", err)
		}
		cancel()
		a.server = nil
	}
	if a.publisher != nil {
		a.publisher.Close()
		a.publisher = nil
	}
	if a.platform != nil {
		a.platform.Stop()
		a.platform = nil
	}
}

func (a *App) tickLoop(delay time.Duration) {
	defer a.shutdownWg.Done()
	ticker := time.NewTicker(delay)
	defer ticker.Stop()
	for {
		select {
		case <-a.stopsignal:
			slog.Info("Ending tick loop")
			return
		case <-ticker.C:
			a.tick()
		}
	}
}

// tick runs one pipeline step. Failures are logged when they start and
// when they stop, not on every tick.
func (a *App) tick() {
	now := a.clock.Millis()
	if u.Wrapped(now, a.lastMillis) {
		slog.Info("Millisecond clock wrapped", "before", a.lastMillis, "now", now)
	}
	a.lastMillis = now
	err := a.controller.Tick(a.platform.ButtonHeld(), now)
	a.metrics.Tick(err)
	switch {
	case err != nil && !a.tickFailing:
		slog.Error("Tick failed", "error", err)
	case err == nil && a.tickFailing:
		slog.Info("Tick recovered")
	}
	a.tickFailing = err != nil
}

func (a *App) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/config", c.ConfigHandler(a.config.ConfigFile))
	mux.HandleFunc("/api/state", a.stateHandler)
	mux.Handle("/metrics", a.metrics.Handler())
	return mux
}

func (a *App) stateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(a.currentState()); err != nil {
		slog.Error("Failed to encode state", "error", err)
	}
}

func (a *App) currentState() state.State {
	a.stateMutex.RLock()
	defer a.stateMutex.RUnlock()
	return a.state
}

func (a *App) StateChanged(s state.State) {
	a.stateMutex.Lock()
	defer a.stateMutex.Unlock()
	a.state = s
}

func (a *App) GestureRecognised(gesture.Event, state.State) {}

func (a *App) StateReset(error) {}
