// Package automation runs scripted universes described in YAML.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/planets/internal/config"
	"github.com/san-kum/planets/internal/metrics"
	"github.com/san-kum/planets/internal/sim"
	"github.com/san-kum/planets/internal/storage"
	"github.com/san-kum/planets/internal/universe"
)

var (
	ErrUnknownAction = errors.New("automation: unknown action")
	ErrNoStore       = errors.New("automation: no run store configured")
	ErrNoTarget      = errors.New("automation: no orbit target")
)

// Step actions.
const (
	ActionGenerate = "generate"
	ActionOrbital  = "orbital"
	ActionPreset   = "preset"
	ActionLoad     = "load"
	ActionClear    = "clear"
	ActionSpeed    = "speed"
	ActionCenter   = "center"
	ActionEscapees = "escapees"
	ActionAdvance  = "advance"
	ActionRecord   = "record"
	ActionSave     = "save"
	ActionAssert   = "assert"
	ActionTrials   = "trials"
)

// Scenario is a scripted sequence of steps against one universe.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Seed        uint64 `yaml:"seed"`
	Steps       []Step `yaml:"steps"`
}

// Step is a single step in a scenario. Which fields apply depends on Action.
type Step struct {
	Action      string       `yaml:"action"`
	Count       int          `yaml:"count"`
	Trials      int          `yaml:"trials"`
	Preset      string       `yaml:"preset"`
	File        string       `yaml:"file"`
	Speed       float64      `yaml:"speed"`
	Frames      int          `yaml:"frames"`
	FrameMicros int64        `yaml:"frame_micros"`
	RecordEvery int          `yaml:"record_every"`
	Expect      *Expectation `yaml:"expect"`
}

// StepResult reports the universe after a step.
type StepResult struct {
	Index   int
	Action  string
	Bodies  int
	Mass    float64
	Time    float64
	Merges  int
	Metrics map[string]float64
	RunID   string
	Trials  []TrialResult
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("automation: parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("automation: %s has no steps", path)
	}

	return &scenario, nil
}

// Options configures a scenario run. Relative file paths in steps are
// resolved against Dir.
type Options struct {
	Config *config.Config
	Store  *storage.Store
	Dir    string
	Logger *slog.Logger
}

type runner struct {
	opts   Options
	u      *universe.Universe
	sim    *sim.Simulator
	rng    *rand.Rand
	random universe.RandomParams
	log    *slog.Logger
	time   float64
	last   *sim.Result
}

// RunScenario executes all steps against a fresh universe and returns the
// results of the steps that completed.
func RunScenario(ctx context.Context, scenario *Scenario, opts Options) ([]StepResult, *universe.Universe, error) {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	rp, err := opts.Config.RandomParams()
	if err != nil {
		return nil, nil, err
	}
	seed := scenario.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	u := universe.New(opts.Config.UniverseOptions())
	r := &runner{
		opts:   opts,
		u:      u,
		sim:    sim.New(u),
		rng:    rand.New(rand.NewPCG(seed, seed>>1|1)),
		random: rp,
		log:    opts.Logger.With("component", "automation", "scenario", scenario.Name),
	}
	for _, m := range metrics.Default() {
		r.sim.AddMetric(m)
	}

	results := make([]StepResult, 0, len(scenario.Steps))
	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return results, u, err
		}
		r.log.Info("running step", "step", i+1, "of", len(scenario.Steps), "action", step.Action)

		res, err := r.run(ctx, step)
		if err != nil {
			return results, u, fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
		res.Index = i
		res.Action = step.Action
		res.Bodies = u.Len()
		res.Mass = u.TotalMass()
		res.Time = r.time
		results = append(results, res)
	}

	return results, u, nil
}

func (r *runner) run(ctx context.Context, step Step) (StepResult, error) {
	var res StepResult
	switch step.Action {
	case ActionGenerate:
		p := r.random
		if step.Count > 0 {
			p.Count = step.Count
		}
		_, err := r.u.GenerateRandom(r.rng, p)
		return res, err

	case ActionOrbital:
		target := r.u.Selected()
		if !r.u.IsValid(target) {
			target = heaviest(r.u)
		}
		if target == universe.None {
			return res, ErrNoTarget
		}
		_, err := r.u.GenerateRandomOrbital(r.rng, step.Count, target)
		return res, err

	case ActionPreset:
		p := config.GetPreset(step.Preset)
		if p == nil {
			return res, fmt.Errorf("automation: unknown preset %q", step.Preset)
		}
		return res, p.Apply(r.u, r.rng)

	case ActionLoad:
		_, err := storage.LoadFile(r.path(step.File), r.u)
		return res, err

	case ActionClear:
		r.u.RemoveAll()
	case ActionSpeed:
		r.u.SetSpeed(step.Speed)
	case ActionCenter:
		r.u.CenterAll()
	case ActionEscapees:
		r.u.RemoveEscapees()

	case ActionAdvance, ActionRecord:
		cfg := runConfig(step)
		if step.Action == ActionRecord {
			if r.opts.Store == nil {
				return res, ErrNoStore
			}
			if cfg.RecordEvery == 0 {
				cfg.RecordEvery = 1
			}
		}
		out, err := r.sim.Run(ctx, cfg)
		if err != nil {
			return res, err
		}
		r.last = out
		r.time += out.Time
		res.Merges = out.Merges
		res.Metrics = out.Metrics
		if step.Action == ActionRecord {
			res.RunID, err = r.opts.Store.Save(metadata(out, cfg, r.u), out.Frames)
			if err != nil {
				return res, fmt.Errorf("automation: save run: %w", err)
			}
			r.log.Info("run recorded", "run", res.RunID, "frames", len(out.Frames))
		}

	case ActionSave:
		return res, storage.SaveFile(r.path(step.File), r.u)

	case ActionAssert:
		if step.Expect == nil {
			return res, nil
		}
		return res, step.Expect.Check(r.u, r.last)

	case ActionTrials:
		cfg := runConfig(step)
		trials, err := RunMonteCarlo(ctx, MonteCarloConfig{
			Preset:      step.Preset,
			Random:      r.random,
			Count:       step.Count,
			Options:     r.opts.Config.UniverseOptions(),
			Trials:      max(step.Trials, 1),
			Frames:      cfg.Frames,
			FrameMicros: cfg.FrameMicros,
			Seed:        r.rng.Uint64(),
		})
		if err != nil {
			return res, err
		}
		stable, unstable := MonteCarloStats(trials)
		r.log.Info("trials complete", "stable", stable, "unstable", unstable)
		res.Trials = trials

	default:
		return res, fmt.Errorf("%w: %q", ErrUnknownAction, step.Action)
	}
	return res, nil
}

func (r *runner) path(p string) string {
	if p == "" || filepath.IsAbs(p) || r.opts.Dir == "" {
		return p
	}
	return filepath.Join(r.opts.Dir, p)
}

func runConfig(step Step) sim.Config {
	cfg := sim.Config{
		Frames:      step.Frames,
		FrameMicros: step.FrameMicros,
		RecordEvery: step.RecordEvery,
	}
	if cfg.Frames == 0 {
		cfg.Frames = 60
	}
	if cfg.FrameMicros == 0 {
		cfg.FrameMicros = sim.DefaultFrameMicros
	}
	return cfg
}

func metadata(res *sim.Result, cfg sim.Config, u *universe.Universe) storage.RunMetadata {
	return storage.RunMetadata{
		Source:        "script",
		Seed:          cfg.Seed,
		Frames:        res.FramesRun,
		FrameMicros:   cfg.FrameMicros,
		StepsPerFrame: u.StepsPerFrame(),
		Speed:         u.Speed(),
		InitialBodies: res.InitialBodies,
		FinalBodies:   res.FinalBodies,
		Metrics:       res.Metrics,
	}
}

func heaviest(u *universe.Universe) universe.ID {
	best, mass := universe.None, 0.0
	for id, b := range u.All() {
		if b.Mass > mass || (b.Mass == mass && id < best) {
			best, mass = id, b.Mass
		}
	}
	return best
}
