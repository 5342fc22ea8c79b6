package automation

import (
	"context"
	"testing"

	"github.com/san-kum/planets/internal/universe"
)

func TestRunMonteCarlo(t *testing.T) {
	random := universe.DefaultRandomParams()
	cfg := MonteCarloConfig{
		Random:      random,
		Count:       4,
		Options:     universe.DefaultOptions(),
		Trials:      3,
		Frames:      5,
		FrameMicros: 1000,
		Seed:        10,
	}

	results, err := RunMonteCarlo(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 trials, got %d", len(results))
	}
	for i, r := range results {
		if r.Seed != 10+uint64(i) {
			t.Errorf("trial %d: expected seed %d, got %d", i, 10+i, r.Seed)
		}
		if r.InitialBodies != 4 {
			t.Errorf("trial %d: expected 4 bodies, got %d", i, r.InitialBodies)
		}
		if !r.Stable || r.MaxDistance > random.PositionRadius*2 {
			t.Errorf("trial %d: expected a bounded run, got %+v", i, r)
		}
	}

	stable, unstable := MonteCarloStats(results)
	if stable != 3 || unstable != 0 {
		t.Errorf("expected 3 stable trials, got %d/%d", stable, unstable)
	}
}

func TestRunMonteCarloEscape(t *testing.T) {
	opts := universe.DefaultOptions()
	opts.EscapeDistance = 1

	results, err := RunMonteCarlo(context.Background(), MonteCarloConfig{
		Random:      universe.DefaultRandomParams(),
		Count:       20,
		Options:     opts,
		Trials:      2,
		Frames:      2,
		FrameMicros: 1000,
		Seed:        1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, unstable := MonteCarloStats(results); unstable != 2 {
		t.Errorf("bodies spread over a radius of 1000 should escape a distance of 1")
	}
}

func TestRunMonteCarloPreset(t *testing.T) {
	results, err := RunMonteCarlo(context.Background(), MonteCarloConfig{
		Preset:      "binary",
		Options:     universe.DefaultOptions(),
		Trials:      2,
		Frames:      2,
		FrameMicros: 1000,
		Seed:        4,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.InitialBodies != 10 {
			t.Errorf("expected 10 preset bodies, got %d", r.InitialBodies)
		}
	}

	if _, err := RunMonteCarlo(context.Background(), MonteCarloConfig{Preset: "nope", Trials: 1}); err == nil {
		t.Error("expected an unknown preset error")
	}
	if _, err := RunMonteCarlo(context.Background(), MonteCarloConfig{Trials: 0}); err == nil {
		t.Error("expected an error for zero trials")
	}
}

func TestScenarioTrialsStep(t *testing.T) {
	sc := &Scenario{Seed: 2, Steps: []Step{{Action: ActionTrials, Trials: 2, Count: 3, Frames: 3}}}
	results, _, err := run(t, sc, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results[0].Trials) != 2 {
		t.Errorf("expected 2 trials, got %d", len(results[0].Trials))
	}
}

func TestMonteCarloStats(t *testing.T) {
	results := []TrialResult{{Stable: true}, {Stable: false}, {Stable: true}}
	stable, unstable := MonteCarloStats(results)
	if stable != 2 || unstable != 1 {
		t.Errorf("expected 2/1, got %d/%d", stable, unstable)
	}
}
