package universe

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// G is the gravitational constant.
	G = 6.67e-11

	// VelocityFactor converts UI velocity units to simulation units.
	VelocityFactor = 1.0e-4

	// TimeScale is the number of simulation time units per elapsed microsecond.
	TimeScale = 0.02

	// RadiusShape is the divisor in the mass to radius relation.
	RadiusShape = 10.0

	// MinMass and MaxMass bound interactively edited masses.
	MinMass = 1.0
	MaxMass = 1.0e9

	// DefaultMass is the mass of a freshly staged body.
	DefaultMass = 1000.0
)

// ID identifies a body for its whole lifetime. IDs are never reused.
type ID uint64

// None is the zero ID; it never refers to a body.
const None ID = 0

// Body is a point mass with a recorded motion trail.
type Body struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Mass     float64
	Path     []mgl64.Vec3
}

// RadiusForMass returns the radius of a body of the given mass.
func RadiusForMass(mass float64) float64 {
	return math.Cbrt(3*mass/(4*math.Pi)) / RadiusShape
}

// Radius is always derived from the mass.
func (b *Body) Radius() float64 { return RadiusForMass(b.Mass) }

// UIVelocity returns the velocity in UI units.
func (b *Body) UIVelocity() mgl64.Vec3 { return b.Velocity.Mul(1 / VelocityFactor) }

// SetUIVelocity sets the velocity from UI units.
func (b *Body) SetUIVelocity(v mgl64.Vec3) { b.Velocity = v.Mul(VelocityFactor) }

// Momentum returns m·v.
func (b *Body) Momentum() mgl64.Vec3 { return b.Velocity.Mul(b.Mass) }

// IsFinite reports whether position and velocity contain no NaN or Inf.
func (b *Body) IsFinite() bool {
	for i := 0; i < 3; i++ {
		if !finite(b.Position[i]) || !finite(b.Velocity[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy, including the trail.
func (b *Body) Clone() Body {
	c := *b
	c.Path = append([]mgl64.Vec3(nil), b.Path...)
	return c
}

// updatePath appends the current position when the body moved further than
// the record distance since the last point, then trims one point from the
// front if the trail is over its cap. Trimming happens even when nothing was
// appended so a lowered cap shrinks the trail over subsequent updates.
func (b *Body) updatePath(maxLen int, recordDistSq float64) {
	if n := len(b.Path); n == 0 || b.Path[n-1].Sub(b.Position).LenSqr() > recordDistSq {
		b.Path = append(b.Path, b.Position)
	}
	if len(b.Path) > maxLen {
		b.Path = b.Path[1:]
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
