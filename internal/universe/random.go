package universe

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
)

// RandomParams bounds the uniform distributions used by GenerateRandom.
type RandomParams struct {
	Count          int
	PositionRadius float64
	MaxSpeed       float64 // UI units
	MinMass        float64
	MaxMass        float64
}

func DefaultRandomParams() RandomParams {
	return RandomParams{
		Count:          100,
		PositionRadius: 1.0e3,
		MaxSpeed:       1.0,
		MinMass:        1.0,
		MaxMass:        100.0,
	}
}

func (p RandomParams) validate() error {
	switch {
	case p.Count < 0:
		return outOfRange("count", float64(p.Count))
	case p.PositionRadius < 0:
		return outOfRange("position radius", p.PositionRadius)
	case p.MaxSpeed < 0:
		return outOfRange("max speed", p.MaxSpeed)
	case !(p.MinMass > 0):
		return outOfRange("min mass", p.MinMass)
	case p.MaxMass < p.MinMass:
		return outOfRange("max mass", p.MaxMass)
	}
	return nil
}

// GenerateRandom adds Count bodies with positions uniform in a ball of
// PositionRadius, velocities uniform in direction with speed in
// [0, MaxSpeed] and masses uniform in [MinMass, MaxMass].
func (u *Universe) GenerateRandom(rng *rand.Rand, p RandomParams) ([]ID, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	ids := make([]ID, 0, p.Count)
	for i := 0; i < p.Count; i++ {
		pos := randomUnit(rng).Mul(p.PositionRadius * math.Cbrt(rng.Float64()))
		vel := randomUnit(rng).Mul(p.MaxSpeed * rng.Float64() * VelocityFactor)
		mass := p.MinMass + rng.Float64()*(p.MaxMass-p.MinMass)

		id, err := u.Add(pos, vel, mass)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GenerateRandomOrbital adds count bodies on approximately circular orbits
// around target, each in a random plane at 4 to 40 target radii and with at
// most one percent of the target's mass.
func (u *Universe) GenerateRandomOrbital(rng *rand.Rand, count int, target ID) ([]ID, error) {
	if count < 0 {
		return nil, outOfRange("count", float64(count))
	}
	center, ok := u.Get(target)
	if !ok {
		return nil, ErrInvalidID
	}

	r0 := center.Radius()
	maxMass := math.Max(MinMass, center.Mass*0.01)

	ids := make([]ID, 0, count)
	for i := 0; i < count; i++ {
		radius := r0 * (4 + 36*rng.Float64())
		mass := MinMass + rng.Float64()*(maxMass-MinMass)

		e1, e2 := planeBasis(randomUnit(rng))
		theta := rng.Float64() * 2 * math.Pi
		sin, cos := math.Sincos(theta)

		offset := e1.Mul(cos).Add(e2.Mul(sin)).Mul(radius)
		tangent := e2.Mul(cos).Sub(e1.Mul(sin))
		speed := CircularOrbitSpeed(u.g, center.Mass, mass, radius)

		id, err := u.Add(center.Position.Add(offset), center.Velocity.Add(tangent.Mul(speed)), mass)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CircularOrbitSpeed returns the approximate speed for a body of mass m to
// circle a body of mass M at distance r: sqrt(G·M² / ((M+m)·r)).
// It is not the exact two-body solution.
func CircularOrbitSpeed(g, centralMass, orbitingMass, radius float64) float64 {
	if radius <= 0 || centralMass+orbitingMass <= 0 {
		return 0
	}
	return math.Sqrt(g * centralMass * centralMass / ((centralMass + orbitingMass) * radius))
}

func randomUnit(rng *rand.Rand) mgl64.Vec3 {
	z := 2*rng.Float64() - 1
	phi := 2 * math.Pi * rng.Float64()
	r := math.Sqrt(1 - z*z)
	return mgl64.Vec3{r * math.Cos(phi), r * math.Sin(phi), z}
}

// planeBasis returns two orthonormal vectors spanning the plane normal to n.
func planeBasis(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	ref := mgl64.Vec3{1, 0, 0}
	if math.Abs(n.X()) > 0.9 {
		ref = mgl64.Vec3{0, 1, 0}
	}
	e1 := n.Cross(ref).Normalize()
	e2 := n.Cross(e1).Normalize()
	return e1, e2
}
