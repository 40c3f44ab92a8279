package sdrgnss

import "github.com/prometheus/client_golang/prometheus"

/* metrics.go : ambient — metrics
*
* Not named by spec.md, but carried regardless of any Non-goal per the
* ambient-stack rule. Exposes a prometheus.Registry the surrounding
* driver can mount; this package never starts its own HTTP server.
 */

// Metrics groups the counters/gauges this repo's components update.
type Metrics struct {
	Registry *prometheus.Registry

	ChannelStateTransitions *prometheus.CounterVec
	AcquisitionDwells       *prometheus.CounterVec
	PVTFixes                prometheus.Counter
	PVTNoFixes              prometheus.Counter
	DOP                     *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		ChannelStateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdrgnss",
			Name:      "channel_state_transitions_total",
			Help:      "Count of channel FSM transitions, by destination state.",
		}, []string{"state"}),
		AcquisitionDwells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdrgnss",
			Name:      "acquisition_dwells_total",
			Help:      "Count of acquisition dwells consumed, by variant and outcome.",
		}, []string{"variant", "outcome"}),
		PVTFixes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sdrgnss",
			Name:      "pvt_fixes_total",
			Help:      "Count of PVT epochs that produced a fix.",
		}),
		PVTNoFixes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sdrgnss",
			Name:      "pvt_no_fixes_total",
			Help:      "Count of PVT epochs that returned NO_FIX.",
		}),
		DOP: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sdrgnss",
			Name:      "pvt_dop",
			Help:      "Most recent dilution-of-precision values.",
		}, []string{"kind"}),
	}

	reg.MustRegister(m.ChannelStateTransitions, m.AcquisitionDwells, m.PVTFixes, m.PVTNoFixes, m.DOP)
	return m
}

// ObserveTransition records a channel FSM transition to the given state.
func (m *Metrics) ObserveTransition(s ChannelState) {
	m.ChannelStateTransitions.WithLabelValues(s.String()).Inc()
}

// ObserveDwell records one acquisition dwell's outcome.
func (m *Metrics) ObserveDwell(variant AcqVariant, positive bool) {
	outcome := "negative"
	if positive {
		outcome = "positive"
	}
	var v string
	switch variant {
	case AcqPCPS:
		v = "pcps"
	case AcqTong:
		v = "tong"
	case AcqQuickSync:
		v = "quicksync"
	}
	m.AcquisitionDwells.WithLabelValues(v, outcome).Inc()
}

// ObservePVT records a PVT epoch's fix/no-fix outcome and, on a fix, its
// DOP values.
func (m *Metrics) ObservePVT(sol PVTSolution) {
	if !sol.Fix {
		m.PVTNoFixes.Inc()
		return
	}
	m.PVTFixes.Inc()
	m.DOP.WithLabelValues("gdop").Set(sol.GDOP)
	m.DOP.WithLabelValues("hdop").Set(sol.HDOP)
	m.DOP.WithLabelValues("vdop").Set(sol.VDOP)
	m.DOP.WithLabelValues("tdop").Set(sol.TDOP)
}
