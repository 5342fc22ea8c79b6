package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/planets/internal/universe"
)

// Collector exports universe events as Prometheus metrics. It implements
// universe.Observer.
type Collector struct {
	merges    prometheus.Counter
	advances  prometheus.Counter
	substeps  prometheus.Counter
	bodies    prometheus.Gauge
	mergeMass prometheus.Histogram
	commands  *prometheus.CounterVec
}

// NewCollector creates the collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		merges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planets_merges_total",
			Help: "Total number of body merges",
		}),
		advances: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planets_advances_total",
			Help: "Total number of simulated frames",
		}),
		substeps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planets_substeps_total",
			Help: "Total number of integration substeps",
		}),
		bodies: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "planets_bodies",
			Help: "Number of live bodies after the last frame",
		}),
		mergeMass: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planets_merge_mass",
			Help:    "Mass of bodies produced by merges",
			Buckets: prometheus.ExponentialBuckets(1, 10, 10),
		}),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planets_commands_total",
				Help: "Commands received by the server",
			},
			[]string{"type", "result"},
		),
	}

	reg.MustRegister(c.merges, c.advances, c.substeps, c.bodies, c.mergeMass, c.commands)
	return c
}

func (c *Collector) OnMerge(e universe.MergeEvent) {
	c.merges.Inc()
	c.mergeMass.Observe(e.Mass)
}

func (c *Collector) OnAdvance(e universe.AdvanceEvent) {
	c.advances.Inc()
	c.substeps.Add(float64(e.Substeps))
	c.bodies.Set(float64(e.Bodies))
}

// SetBodies updates the body gauge outside of Advance, e.g. after a load.
func (c *Collector) SetBodies(n int) { c.bodies.Set(float64(n)) }

func (c *Collector) RecordCommand(kind, result string) {
	c.commands.WithLabelValues(kind, result).Inc()
}
