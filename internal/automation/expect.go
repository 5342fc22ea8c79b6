package automation

import (
	"errors"
	"fmt"

	"github.com/san-kum/planets/internal/metrics"
	"github.com/san-kum/planets/internal/sim"
	"github.com/san-kum/planets/internal/universe"
)

var ErrAssertion = errors.New("automation: assertion failed")

// Expectation bounds the universe state. Unset fields are not checked.
// MaxEnergyDrift applies to the most recent advance or record step.
type Expectation struct {
	MinBodies      *int     `yaml:"min_bodies"`
	MaxBodies      *int     `yaml:"max_bodies"`
	MinMass        *float64 `yaml:"min_mass"`
	MaxMass        *float64 `yaml:"max_mass"`
	MaxMomentum    *float64 `yaml:"max_momentum"`
	MaxEnergyDrift *float64 `yaml:"max_energy_drift"`
	MinMerges      *int     `yaml:"min_merges"`
}

// AssertionError describes one violated bound.
type AssertionError struct {
	Check string
	Got   float64
	Limit float64
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("automation: %s: got %g, limit %g", e.Check, e.Got, e.Limit)
}

func (e *AssertionError) Unwrap() error { return ErrAssertion }

// Check returns every violated bound joined into one error.
func (e *Expectation) Check(u *universe.Universe, last *sim.Result) error {
	var errs []error
	atLeast := func(check string, got, limit float64) {
		if got < limit {
			errs = append(errs, &AssertionError{Check: check, Got: got, Limit: limit})
		}
	}
	atMost := func(check string, got, limit float64) {
		if got > limit {
			errs = append(errs, &AssertionError{Check: check, Got: got, Limit: limit})
		}
	}

	if e.MinBodies != nil {
		atLeast("min_bodies", float64(u.Len()), float64(*e.MinBodies))
	}
	if e.MaxBodies != nil {
		atMost("max_bodies", float64(u.Len()), float64(*e.MaxBodies))
	}
	if e.MinMass != nil {
		atLeast("min_mass", u.TotalMass(), *e.MinMass)
	}
	if e.MaxMass != nil {
		atMost("max_mass", u.TotalMass(), *e.MaxMass)
	}
	if e.MaxMomentum != nil {
		atMost("max_momentum", metrics.Momentum(u).Len(), *e.MaxMomentum)
	}

	if e.MaxEnergyDrift != nil || e.MinMerges != nil {
		if last == nil {
			return fmt.Errorf("%w: energy and merge checks need a prior advance", ErrAssertion)
		}
		if e.MaxEnergyDrift != nil {
			atMost("max_energy_drift", last.Metrics["energy_drift"], *e.MaxEnergyDrift)
		}
		if e.MinMerges != nil {
			atLeast("min_merges", float64(last.Merges), float64(*e.MinMerges))
		}
	}

	return errors.Join(errs...)
}
