package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/planets/internal/metrics"
	"github.com/san-kum/planets/internal/universe"
)

// Factory builds the starting universe of one ensemble member.
type Factory func(seed uint64) (*universe.Universe, error)

// Ensemble runs the same setup with consecutive seeds in parallel.
type Ensemble struct {
	factory   Factory
	metrics   func() []metrics.Metric
	numRuns   int
	seedStart uint64
}

// NewEnsemble prepares numRuns runs seeded seedStart, seedStart+1, ...
// newMetrics may be nil; it is called once per run since metrics keep state.
func NewEnsemble(factory Factory, newMetrics func() []metrics.Metric, numRuns int, seedStart uint64) *Ensemble {
	return &Ensemble{factory: factory, metrics: newMetrics, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			runCfg := cfg
			runCfg.Seed = e.seedStart + uint64(idx)

			u, err := e.factory(runCfg.Seed)
			if err != nil {
				errs[idx] = fmt.Errorf("sim: run %d: %w", idx, err)
				return
			}
			s := New(u)
			if e.metrics != nil {
				for _, m := range e.metrics() {
					s.AddMetric(m)
				}
			}
			results[idx], errs[idx] = s.Run(ctx, runCfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
