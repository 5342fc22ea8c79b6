package analysis

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/gomega"

	"github.com/san-kum/planets/internal/sim"
	"github.com/san-kum/planets/internal/universe"
)

func TestDominantPeriod(t *testing.T) {
	g := NewWithT(t)

	series := make([]float64, 64)
	for i := range series {
		series[i] = 5 + math.Sin(2*math.Pi*float64(i)/16)
	}

	ps := PowerSpectrum(series)
	g.Expect(ps).To(HaveLen(32))
	g.Expect(ps[0]).To(BeNumerically("~", 0, 1e-9))

	period, ok := DominantPeriod(series, 0.5)
	g.Expect(ok).To(BeTrue())
	g.Expect(period).To(BeNumerically("~", 8, 1e-9))
}

func TestDominantPeriodOddLength(t *testing.T) {
	series := make([]float64, 90)
	for i := range series {
		series[i] = math.Cos(2 * math.Pi * float64(i) / 30)
	}
	period, ok := DominantPeriod(series, 1)
	if !ok || math.Abs(period-30) > 1e-6 {
		t.Errorf("expected a period of 30, got %v (%v)", period, ok)
	}
}

func TestDominantPeriodConstant(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
	}{
		{"constant", []float64{3, 3, 3, 3, 3, 3, 3, 3}},
		{"too short", []float64{1}},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := DominantPeriod(tt.series, 1); ok {
				t.Error("expected no dominant period")
			}
		})
	}
}

func cluster(seed uint64) Builder {
	return func() (*universe.Universe, error) {
		u := universe.New(universe.DefaultOptions())
		p := universe.DefaultRandomParams()
		p.Count = 5
		_, err := u.GenerateRandom(rand.New(rand.NewPCG(seed, seed)), p)
		return u, err
	}
}

func TestLyapunovExponent(t *testing.T) {
	cfg := sim.Config{Frames: 20, FrameMicros: 16_667}
	lambda, err := LyapunovExponent(context.Background(), cluster(3), 1e-3, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		t.Errorf("expected a finite exponent, got %v", lambda)
	}
}

func TestLyapunovFreeBodiesDoNotDiverge(t *testing.T) {
	// a single body moves identically in both copies
	build := func() (*universe.Universe, error) {
		u := universe.New(universe.DefaultOptions())
		_, err := u.Add(mgl64.Vec3{}, mgl64.Vec3{1e-3, 0, 0}, 10)
		return u, err
	}
	lambda, err := LyapunovExponent(context.Background(), build, 1e-3, sim.Config{Frames: 10, FrameMicros: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(lambda) > 1e-6 {
		t.Errorf("expected no divergence, got %v", lambda)
	}
}

func TestLyapunovErrors(t *testing.T) {
	empty := func() (*universe.Universe, error) { return universe.New(universe.DefaultOptions()), nil }
	paused := func() (*universe.Universe, error) {
		u, err := cluster(1)()
		u.SetSpeed(0)
		return u, err
	}
	boom := errors.New("boom")

	tests := []struct {
		name  string
		build Builder
		eps   float64
		cfg   sim.Config
		want  error
	}{
		{"empty", empty, 1e-3, sim.Config{Frames: 1, FrameMicros: 1}, ErrNoDivergence},
		{"paused", paused, 1e-3, sim.Config{Frames: 3, FrameMicros: 1000}, ErrNoDivergence},
		{"bad config", cluster(1), 1e-3, sim.Config{}, sim.ErrInvalidConfig},
		{"build error", func() (*universe.Universe, error) { return nil, boom }, 1e-3, sim.Config{Frames: 1, FrameMicros: 1}, boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LyapunovExponent(context.Background(), tt.build, tt.eps, tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := LyapunovExponent(context.Background(), cluster(1), 0, sim.Config{Frames: 1, FrameMicros: 1}); err == nil {
		t.Error("expected an error for a zero perturbation")
	}
}
