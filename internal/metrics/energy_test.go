package metrics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/planets/internal/universe"
)

func twoBodies(t *testing.T) *universe.Universe {
	t.Helper()
	u := universe.New(universe.DefaultOptions())
	if _, err := u.Add(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 0, 0}, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := u.Add(mgl64.Vec3{0, 4, 0}, mgl64.Vec3{0, -1, 0}, 6); err != nil {
		t.Fatal(err)
	}
	return u
}

func TestKineticEnergy(t *testing.T) {
	u := twoBodies(t)
	expected := 0.5*3*4 + 0.5*6*1
	if got := KineticEnergy(u); math.Abs(got-expected) > 1e-12 {
		t.Errorf("expected %f, got %f", expected, got)
	}
}

func TestPotentialEnergy(t *testing.T) {
	u := twoBodies(t)
	expected := universe.G * 3 * 6 * math.Log(4)
	if got := PotentialEnergy(u); math.Abs(got-expected) > 1e-20 {
		t.Errorf("expected %g, got %g", expected, got)
	}

	empty := universe.New(universe.DefaultOptions())
	if got := PotentialEnergy(empty); got != 0 {
		t.Errorf("expected zero for empty universe, got %g", got)
	}
}

func TestMomentum(t *testing.T) {
	u := twoBodies(t)
	got := Momentum(u)
	if !got.ApproxEqual(mgl64.Vec3{6, -6, 0}) {
		t.Errorf("expected (6,-6,0), got %v", got)
	}
}

func TestSummarize(t *testing.T) {
	u := twoBodies(t)
	s := Summarize(u)
	if s.Bodies != 2 {
		t.Errorf("expected 2 bodies, got %d", s.Bodies)
	}
	if s.TotalMass != 9 {
		t.Errorf("expected mass 9, got %f", s.TotalMass)
	}
	if math.Abs(s.Energy()-(s.Kinetic+s.Potential)) > 1e-12 {
		t.Error("energy is not kinetic plus potential")
	}
}

func TestEnergyDrift(t *testing.T) {
	u := twoBodies(t)
	m := NewEnergyDrift()

	m.Observe(u, 0)
	if m.Value() != 0 {
		t.Errorf("expected no drift after one sample, got %f", m.Value())
	}

	b, _ := u.Get(1)
	b.Velocity = b.Velocity.Mul(2)
	m.Observe(u, 1)
	if m.Value() <= 0 {
		t.Error("expected positive drift after the energy changed")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestMomentumDrift_ConservedByAdvance(t *testing.T) {
	opts := universe.DefaultOptions()
	opts.StepsPerFrame = 4
	u := universe.New(opts)
	u.Add(mgl64.Vec3{-3, 0, 0}, mgl64.Vec3{0, 1e-3, 0}, 500)
	u.Add(mgl64.Vec3{3, 0, 0}, mgl64.Vec3{0, -2e-3, 0}, 250)

	m := NewMomentumDrift()
	m.Observe(u, 0)
	for i := 0; i < 50; i++ {
		u.Advance(16667)
		m.Observe(u, float64(i))
	}
	if m.Value() > 1e-9 {
		t.Errorf("momentum drifted by %g", m.Value())
	}
}

func TestBodyCount(t *testing.T) {
	u := twoBodies(t)
	m := NewBodyCount()
	m.Observe(u, 0)
	if m.Value() != 2 {
		t.Errorf("expected 2, got %f", m.Value())
	}
	if m.Name() != "bodies" {
		t.Errorf("unexpected name %q", m.Name())
	}
}
