package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/san-kum/planets/internal/config"
	"github.com/san-kum/planets/internal/metrics"
	"github.com/san-kum/planets/internal/sim"
	"github.com/san-kum/planets/internal/universe"
)

// MonteCarloConfig runs the same starting setup with different seeds. Preset
// takes precedence over Random; Count overrides the random body count.
type MonteCarloConfig struct {
	Preset      string
	Random      universe.RandomParams
	Count       int
	Options     universe.Options
	Trials      int
	Frames      int
	FrameMicros int64
	Seed        uint64
}

type TrialResult struct {
	Seed          uint64
	InitialBodies int
	FinalBodies   int
	Merges        int
	EnergyDrift   float64
	MaxDistance   float64
	Stable        bool // every body stayed finite and inside the escape distance
}

func RunMonteCarlo(ctx context.Context, cfg MonteCarloConfig) ([]TrialResult, error) {
	if cfg.Trials < 1 {
		return nil, fmt.Errorf("automation: trials = %d", cfg.Trials)
	}
	var preset *config.Preset
	if cfg.Preset != "" {
		if preset = config.GetPreset(cfg.Preset); preset == nil {
			return nil, fmt.Errorf("automation: unknown preset %q", cfg.Preset)
		}
	}
	random := cfg.Random
	if cfg.Count > 0 {
		random.Count = cfg.Count
	}

	factory := func(seed uint64) (*universe.Universe, error) {
		u := universe.New(cfg.Options)
		rng := rand.New(rand.NewPCG(seed, seed>>1|1))
		if preset != nil {
			return u, preset.Apply(u, rng)
		}
		_, err := u.GenerateRandom(rng, random)
		return u, err
	}

	// the first and last frames are enough to judge stability
	runCfg := sim.Config{Frames: cfg.Frames, FrameMicros: cfg.FrameMicros, RecordEvery: cfg.Frames}
	results, err := sim.NewEnsemble(factory, metrics.Default, cfg.Trials, cfg.Seed).Run(ctx, runCfg)
	if err != nil {
		return nil, err
	}

	escape := cfg.Options.EscapeDistance
	if !(escape > 0) {
		escape = universe.DefaultOptions().EscapeDistance
	}

	trials := make([]TrialResult, len(results))
	for i, r := range results {
		tr := TrialResult{
			Seed:          cfg.Seed + uint64(i),
			InitialBodies: r.InitialBodies,
			FinalBodies:   r.FinalBodies,
			Merges:        r.Merges,
			EnergyDrift:   r.Metrics["energy_drift"],
			Stable:        true,
		}
		if n := len(r.Frames); n > 0 {
			for _, b := range r.Frames[n-1].Bodies {
				d := b.Position.Len()
				if math.IsNaN(d) || math.IsInf(d, 0) {
					tr.Stable = false
					continue
				}
				tr.MaxDistance = max(tr.MaxDistance, d)
			}
		}
		if tr.MaxDistance > escape {
			tr.Stable = false
		}
		trials[i] = tr
	}
	return trials, nil
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []TrialResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
