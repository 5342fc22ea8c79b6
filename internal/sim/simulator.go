// Package sim runs a universe without a front end.
package sim

import (
	"context"
	"errors"

	"github.com/san-kum/planets/internal/metrics"
	"github.com/san-kum/planets/internal/storage"
	"github.com/san-kum/planets/internal/universe"
)

var ErrInvalidConfig = errors.New("sim: invalid run config")

type Simulator struct {
	u       *universe.Universe
	metrics []metrics.Metric
	merges  int
}

// New attaches a simulator to u. A universe should carry at most one.
func New(u *universe.Universe) *Simulator {
	s := &Simulator{u: u}
	u.AddObserver(s)
	return s
}

func (s *Simulator) AddMetric(m metrics.Metric) { s.metrics = append(s.metrics, m) }

func (s *Simulator) Universe() *universe.Universe { return s.u }

func (s *Simulator) OnMerge(universe.MergeEvent)     { s.merges++ }
func (s *Simulator) OnAdvance(universe.AdvanceEvent) {}

// Run advances the universe cfg.Frames times. Metrics are observed before
// every frame and once after the last. A cancelled context stops the run and
// returns the partial result with the context error.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	res := &Result{
		Metrics:       make(map[string]float64),
		InitialBodies: s.u.Len(),
	}
	if cfg.RecordEvery > 0 {
		res.Frames = make([]storage.Frame, 0, cfg.Frames/cfg.RecordEvery+2)
	}
	for _, m := range s.metrics {
		m.Reset()
	}
	s.merges = 0

	var err error
	t := 0.0
	for i := 0; i < cfg.Frames; i++ {
		if err = ctx.Err(); err != nil {
			break
		}
		if cfg.RecordEvery > 0 && i%cfg.RecordEvery == 0 {
			res.Frames = append(res.Frames, storage.Capture(s.u, i, t))
		}
		metrics.Observe(s.metrics, s.u, t)

		s.u.Advance(cfg.FrameMicros)
		t += frameTime(s.u, cfg.FrameMicros)
		res.FramesRun++
	}

	metrics.Observe(s.metrics, s.u, t)
	if cfg.RecordEvery > 0 && err == nil {
		res.Frames = append(res.Frames, storage.Capture(s.u, res.FramesRun, t))
	}
	for _, m := range s.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	res.Time = t
	res.FinalBodies = s.u.Len()
	res.Merges = s.merges
	return res, err
}

// RunWithCallback advances frame by frame until the callback returns false,
// the frame count is reached or ctx is cancelled.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(frame int, t float64) bool) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	t := 0.0
	for i := 0; i < cfg.Frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !callback(i, t) {
			return nil
		}
		s.u.Advance(cfg.FrameMicros)
		t += frameTime(s.u, cfg.FrameMicros)
	}
	return nil
}

// frameTime is the simulated time covered by one frame.
func frameTime(u *universe.Universe, micros int64) float64 {
	if u.Speed() <= 0 {
		return 0
	}
	return u.Speed() * float64(micros) * universe.TimeScale
}
