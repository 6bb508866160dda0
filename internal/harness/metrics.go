package harness

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts checked cases. A Runner without Metrics counts nothing.
type Metrics struct {
	cases   *prometheus.CounterVec
	skips   *prometheus.CounterVec
	defects *prometheus.CounterVec
	cost    *prometheus.HistogramVec
}

// NewMetrics creates unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		cases: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hostval_cases_total",
				Help: "Number of checked cases by property and outcome",
			},
			[]string{"property", "outcome"},
		),
		skips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hostval_cases_skipped_total",
				Help: "Number of skipped cases by property and reason",
			},
			[]string{"property", "reason"},
		),
		defects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hostval_defects_total",
				Help: "Number of defects by property and failed check",
			},
			[]string{"property", "check"},
		),
		cost: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hostval_compare_cost",
				Help:    "Budget consumed by one env comparison",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"property"},
		),
	}
}

// MustRegister registers the collectors and panics on failure.
func (m *Metrics) MustRegister(registerer prometheus.Registerer) {
	if err := m.Register(registerer); err != nil {
		panic(err)
	}
}

// Register registers the collectors.
func (m *Metrics) Register(registerer prometheus.Registerer) error {
	return errors.Join(
		registerer.Register(m.cases),
		registerer.Register(m.skips),
		registerer.Register(m.defects),
		registerer.Register(m.cost),
	)
}

func (m *Metrics) observe(prop Property, res CaseResult, err error) {
	if m == nil {
		return
	}
	p := string(prop)
	m.cases.WithLabelValues(p, string(res.Outcome)).Inc()
	m.cost.WithLabelValues(p).Observe(float64(res.Cost))
	switch res.Outcome {
	case OutcomeSkipped:
		m.skips.WithLabelValues(p, res.Skip).Inc()
	case OutcomeDefect:
		check := "unknown"
		var d *Defect
		if errors.As(err, &d) {
			check = d.Check
		}
		m.defects.WithLabelValues(p, check).Inc()
	}
}
