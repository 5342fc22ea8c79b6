// Package metrics measures universe observables and exports them to logs
// and Prometheus.
package metrics

import (
	"github.com/san-kum/planets/internal/universe"
)

// Metric accumulates one observable over a run.
type Metric interface {
	Name() string
	Observe(u *universe.Universe, t float64)
	Value() float64
	Reset()
}

// Summary is a single snapshot of the universe observables.
type Summary struct {
	Bodies    int
	TotalMass float64
	Kinetic   float64
	Potential float64
	Momentum  float64
}

func (s Summary) Energy() float64 { return s.Kinetic + s.Potential }

func Summarize(u *universe.Universe) Summary {
	return Summary{
		Bodies:    u.Len(),
		TotalMass: u.TotalMass(),
		Kinetic:   KineticEnergy(u),
		Potential: PotentialEnergy(u),
		Momentum:  Momentum(u).Len(),
	}
}

// Observe feeds every metric the same sample.
func Observe(ms []Metric, u *universe.Universe, t float64) {
	for _, m := range ms {
		m.Observe(u, t)
	}
}

// Default returns the metrics recorded by headless runs.
func Default() []Metric {
	return []Metric{NewBodyCount(), NewEnergyDrift(), NewMomentumDrift()}
}
