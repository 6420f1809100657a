package dashboard

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeReady     = "ready"
	outcomeFailed    = "failed"
	outcomeDiscarded = "discarded"
)

// Metrics records module loads and open workspaces. A nil *Metrics is a
// no-op.
type Metrics struct {
	loads      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	workspaces prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emr",
			Subsystem: "dashboard",
			Name:      "module_loads_total",
			Help:      "Module loads by module and outcome.",
		}, []string{"module", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "emr",
			Subsystem: "dashboard",
			Name:      "module_load_duration_seconds",
			Help:      "Time spent fetching and joining a module.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"module"}),
		workspaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "emr",
			Subsystem: "dashboard",
			Name:      "open_workspaces",
			Help:      "Sessions with a live workspace.",
		}),
	}
	reg.MustRegister(m.loads, m.duration, m.workspaces)
	return m
}

func (m *Metrics) observeLoad(module, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(module, outcome).Inc()
	m.duration.WithLabelValues(module).Observe(d.Seconds())
}

func (m *Metrics) setWorkspaces(n int) {
	if m == nil {
		return
	}
	m.workspaces.Set(float64(n))
}
