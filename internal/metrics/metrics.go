// Package metrics provides Prometheus metrics for the traffic-light daemon.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/traffic-light/internal/events"
	"github.com/sweeney/traffic-light/internal/logic"
)

const namespace = "traffic_light"

var allModes = []logic.Mode{logic.ModeNormal, logic.ModeRedHold, logic.ModeBlinkAll, logic.ModePowerOff}

// Metrics holds the daemon's collectors. Counters are fed from the event
// bus; gauges are set from controller snapshots.
type Metrics struct {
	phaseEntries *prometheus.CounterVec
	modeChanges  *prometheus.CounterVec
	commands     *prometheus.CounterVec
	sampleErrors prometheus.Counter

	mode           *prometheus.GaugeVec
	lampDuty       *prometheus.GaugeVec
	durations      *prometheus.GaugeVec
	brightness     prometheus.Gauge
	cycles         prometheus.Gauge
	buttonsDropped prometheus.Gauge
	mqttConnected  prometheus.Gauge
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		phaseEntries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_entries_total",
			Help:      "Phases entered by the normal cycle",
		}, []string{"phase"}),
		modeChanges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mode_changes_total",
			Help:      "Mode toggles by target mode",
		}, []string{"mode"}),
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Command lines handled",
		}, []string{"kind", "result"}),
		sampleErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "brightness",
			Name:      "sample_errors_total",
			Help:      "Failed analog reads",
		}),
		mode: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mode",
			Help:      "1 for the active mode, 0 otherwise",
		}, []string{"mode"}),
		lampDuty: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lamp",
			Name:      "duty",
			Help:      "Duty last written to each lamp (0-255)",
		}, []string{"lamp"}),
		durations: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "phase",
			Name:      "duration_seconds",
			Help:      "Configured hold time per color",
		}, []string{"lamp"}),
		brightness: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "brightness",
			Name:      "level",
			Help:      "Last sampled brightness (0-255)",
		}),
		cycles: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cycles",
			Help:      "Completed Red to Red cycles",
		}),
		buttonsDropped: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "buttons",
			Name:      "dropped",
			Help:      "Button events dropped because the queue was full",
		}),
		mqttConnected: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mqtt",
			Name:      "connected",
			Help:      "1 while the broker connection is up",
		}),
	}
}

// Subscribe feeds the counters from bus and returns the unsubscribe function.
func (m *Metrics) Subscribe(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.PhaseEvent) {
			m.phaseEntries.WithLabelValues(e.Phase).Inc()
		}),
		bus.Subscribe(func(e events.ModeEvent) {
			m.modeChanges.WithLabelValues(e.To).Inc()
		}),
		bus.Subscribe(func(e events.CommandEvent) {
			result := "rejected"
			if e.Accepted {
				result = "applied"
			}
			m.commands.WithLabelValues(e.Kind, result).Inc()
		}),
		bus.Subscribe(func(events.SampleErrorEvent) {
			m.sampleErrors.Inc()
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Observe sets the gauges from a controller snapshot.
func (m *Metrics) Observe(s logic.Snapshot) {
	for _, md := range allModes {
		v := 0.0
		if s.State.Mode == md {
			v = 1
		}
		m.mode.WithLabelValues(md.String()).Set(v)
	}
	for _, c := range logic.Colors {
		m.lampDuty.WithLabelValues(c.String()).Set(float64(s.Duties[c]))
		m.durations.WithLabelValues(c.String()).Set(s.Durations.Get(c).Seconds())
	}
	m.brightness.Set(float64(s.Brightness))
	m.cycles.Set(float64(s.Counts.Cycles))
	m.buttonsDropped.Set(float64(s.Counts.ButtonsDropped))
}

// SetMQTTConnected records the broker connection state.
func (m *Metrics) SetMQTTConnected(up bool) {
	if up {
		m.mqttConnected.Set(1)
	} else {
		m.mqttConnected.Set(0)
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
