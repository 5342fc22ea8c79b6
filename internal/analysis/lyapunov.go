package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/planets/internal/sim"
	"github.com/san-kum/planets/internal/universe"
)

var ErrNoDivergence = errors.New("analysis: separation could not be measured")

// Builder returns a fresh universe. Consecutive calls must return identical
// universes with identical ids.
type Builder func() (*universe.Universe, error)

// LyapunovExponent estimates the largest Lyapunov exponent of the universe
// produced by build, in inverse simulated time. A second copy has its lowest
// id body displaced by perturbation along x; after every frame the
// separation is measured and the copy is pulled back to the initial
// distance.
//
//	λ ≈ Σ ln(d_k / d0) / t
//
// Bodies that exist in only one copy (after a merge) are ignored.
func LyapunovExponent(ctx context.Context, build Builder, perturbation float64, cfg sim.Config) (float64, error) {
	if !(perturbation > 0) {
		return 0, fmt.Errorf("analysis: perturbation must be positive, got %g", perturbation)
	}
	if cfg.Frames < 1 || cfg.FrameMicros < 1 {
		return 0, fmt.Errorf("%w: %d frames of %dus", sim.ErrInvalidConfig, cfg.Frames, cfg.FrameMicros)
	}

	ref, err := build()
	if err != nil {
		return 0, err
	}
	pert, err := build()
	if err != nil {
		return 0, err
	}
	ids := ref.IDs()
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: empty universe", ErrNoDivergence)
	}
	first, ok := pert.Get(ids[0])
	if !ok {
		return 0, fmt.Errorf("%w: builds differ", ErrNoDivergence)
	}
	first.Position[0] += perturbation

	d0 := perturbation
	sumLog, t := 0.0, 0.0
	for i := 0; i < cfg.Frames; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		ref.Advance(cfg.FrameMicros)
		pert.Advance(cfg.FrameMicros)
		if ref.Speed() > 0 {
			t += ref.Speed() * float64(cfg.FrameMicros) * universe.TimeScale
		}

		sep := separation(ref, pert)
		if sep == 0 || math.IsNaN(sep) || math.IsInf(sep, 0) {
			continue
		}
		sumLog += math.Log(sep / d0)
		renormalize(ref, pert, d0/sep)
	}

	if t == 0 {
		return 0, fmt.Errorf("%w: no simulated time elapsed", ErrNoDivergence)
	}
	return sumLog / t, nil
}

func separation(ref, pert *universe.Universe) float64 {
	sum := 0.0
	for id, rb := range ref.All() {
		pb, ok := pert.Get(id)
		if !ok {
			continue
		}
		sum += pb.Position.Sub(rb.Position).LenSqr()
	}
	return math.Sqrt(sum)
}

// renormalize scales the position and velocity offsets of pert relative to
// ref by scale.
func renormalize(ref, pert *universe.Universe, scale float64) {
	for id, rb := range ref.All() {
		pb, ok := pert.Get(id)
		if !ok {
			continue
		}
		pb.Position = rb.Position.Add(pb.Position.Sub(rb.Position).Mul(scale))
		pb.Velocity = rb.Velocity.Add(pb.Velocity.Sub(rb.Velocity).Mul(scale))
	}
}
