package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/planets/internal/universe"
)

func KineticEnergy(u *universe.Universe) float64 {
	ke := 0.0
	for _, b := range u.All() {
		ke += 0.5 * b.Mass * b.Velocity.LenSqr()
	}
	return ke
}

// PotentialEnergy is the potential of the universe's force law. Gravity here
// falls off as 1/r, so the pair potential is G·m_i·m_j·ln(r).
// Coincident pairs contribute nothing.
func PotentialEnergy(u *universe.Universe) float64 {
	ids := u.IDs()
	g := u.GravityConstant()
	pe := 0.0
	for i := 0; i < len(ids); i++ {
		a, _ := u.Get(ids[i])
		for j := i + 1; j < len(ids); j++ {
			b, _ := u.Get(ids[j])
			r := b.Position.Sub(a.Position).Len()
			if r == 0 {
				continue
			}
			pe += g * a.Mass * b.Mass * math.Log(r)
		}
	}
	return pe
}

func Momentum(u *universe.Universe) mgl64.Vec3 {
	var p mgl64.Vec3
	for _, b := range u.All() {
		p = p.Add(b.Momentum())
	}
	return p
}

type BodyCount struct {
	name  string
	count int
}

func NewBodyCount() *BodyCount { return &BodyCount{name: "bodies"} }

func (b *BodyCount) Name() string                            { return b.name }
func (b *BodyCount) Observe(u *universe.Universe, t float64) { b.count = u.Len() }
func (b *BodyCount) Value() float64                          { return float64(b.count) }
func (b *BodyCount) Reset()                                  { b.count = 0 }

// EnergyDrift tracks the largest relative deviation of the total energy from
// the first observed sample.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(u *universe.Universe, t float64) {
	energy := KineticEnergy(u) + PotentialEnergy(u)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// MomentumDrift tracks the largest change of total momentum relative to the
// total momentum magnitude scale Σ m|v| of the first sample.
type MomentumDrift struct {
	name     string
	initial  mgl64.Vec3
	scale    float64
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(u *universe.Universe, t float64) {
	p := Momentum(u)
	if m.samples == 0 {
		m.initial = p
		for _, b := range u.All() {
			m.scale += b.Momentum().Len()
		}
	}
	m.samples++
	if m.scale > 0 {
		m.maxDrift = math.Max(m.maxDrift, p.Sub(m.initial).Len()/m.scale)
	}
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = mgl64.Vec3{}
	m.scale = 0
	m.maxDrift = 0
	m.samples = 0
}
