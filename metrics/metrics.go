// Package metrics exports the ornament's tick pipeline to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lautenbacher.net/ornament/gesture"
	"lautenbacher.net/ornament/state"
)

const namespace = "ornament"

// Metrics implements controller.Observer. Each instance owns its registry.
type Metrics struct {
	registry   *prometheus.Registry
	ticks      prometheus.Counter
	tickErrors prometheus.Counter
	gestures   *prometheus.CounterVec
	resets     prometheus.Counter
	brightness prometheus.Gauge
	on         prometheus.Gauge
	mode       prometheus.Gauge
	colour     prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Ticks processed",
		}),
		tickErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tick_errors_total",
			Help:      "Ticks that failed to render or commit a frame",
		}),
		gestures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gestures_total",
			Help:      "Recognised button gestures",
		}, []string{"kind"}),
		resets: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "State resets after an invalid mode or colour",
		}),
		brightness: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "brightness_percent",
			Help:      "Current brightness",
		}),
		on: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "on",
			Help:      "1 when the ornament is lit",
		}),
		mode: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "mode",
			Help:      "Current animation mode index",
		}),
		colour: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "colour",
			Help:      "Current colour index",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Tick counts a processed tick and whether it failed.
func (m *Metrics) Tick(err error) {
	m.ticks.Inc()
	if err != nil {
		m.tickErrors.Inc()
	}
}

func (m *Metrics) GestureRecognised(ev gesture.Event, _ state.State) {
	m.gestures.WithLabelValues(ev.Kind()).Inc()
}

func (m *Metrics) StateChanged(s state.State) {
	m.brightness.Set(float64(s.Brightness))
	m.mode.Set(float64(s.Mode))
	m.colour.Set(float64(s.Colour))
	if s.On {
		m.on.Set(1)
	} else {
		m.on.Set(0)
	}
}

func (m *Metrics) StateReset(error) {
	m.resets.Inc()
}
