// Package placing turns abstract input gestures into new bodies.
//
// An Interface walks through a small state machine. Free placement goes
// XY position → depth → velocity and commits on the third primary action.
// Orbital placement picks a radius around the selected body, then tilts the
// orbit plane and commits with an approximate circular-orbit velocity.
// Firing launches a body along the pointer ray on every primary action.
//
// Every handler reports whether it consumed the gesture. Callers fall back
// to camera controls only when it did not.
package placing

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/planets/internal/camera"
	"github.com/san-kum/planets/internal/universe"
)

const (
	DefaultFiringSpeed = 10.0
	DefaultFiringMass  = 25.0

	depthPerPixel    = 0.1
	radiansPerPixel  = 0.01
	speedPerAxisUnit = universe.VelocityFactor * 10

	// analog stick rates, per second at full deflection
	stickMoveRate   = 0.5
	stickTurnRate   = 2.0
	stickScaleRate  = 1.0
	stickSpeedRate  = speedPerAxisUnit * 5
	microsPerSecond = 1.0e6
)

// Pointer is a pointer movement. Ray is the world ray under the new pointer
// position; Delta is the movement since the last event in screen units with
// y growing upward.
type Pointer struct {
	Ray   camera.Ray
	Delta mgl64.Vec2
}

// Interface is the placement state machine bound to a universe.
type Interface struct {
	u *universe.Universe

	Step Step
	// Body is the body being staged. Its velocity is in simulation units.
	Body          universe.Body
	Rotation      mgl64.Mat4
	OrbitalRadius float64

	FiringSpeed float64 // UI units
	FiringMass  float64
}

func New(u *universe.Universe) *Interface {
	return &Interface{
		u:           u,
		Step:        NotPlacing,
		Body:        universe.Body{Mass: universe.DefaultMass},
		Rotation:    mgl64.Ident4(),
		FiringSpeed: DefaultFiringSpeed,
		FiringMass:  DefaultFiringMass,
	}
}

// PausesSimulation reports whether physics should be held while the user is
// staging a body.
func (p *Interface) PausesSimulation() bool { return p.Step.Staging() }

// BeginInteractiveCreation starts free placement. The staged mass carries over
// from the previous placement.
func (p *Interface) BeginInteractiveCreation() {
	p.reset()
	p.Step = FreePositionXY
	p.u.ClearSelection()
}

// BeginOrbitalCreation starts orbital placement around the selected body.
// It does nothing and reports false without a valid selection.
func (p *Interface) BeginOrbitalCreation() bool {
	center, ok := p.u.SelectedBody()
	if !ok {
		return false
	}
	p.reset()
	p.Body.Mass = math.Min(p.Body.Mass, math.Max(universe.MinMass, center.Mass*0.01))
	p.OrbitalRadius = center.Radius() * 4
	p.placeOnOrbit(center)
	p.Step = OrbitalPlanet
	return true
}

// EnableFiringMode switches firing on or off. Enabling abandons any staged body.
func (p *Interface) EnableFiringMode(enable bool) {
	switch {
	case enable:
		p.Step = Firing
	case p.Step == Firing:
		p.Step = NotPlacing
	}
}

// Cancel abandons the current placement. It reports false when there was
// nothing to cancel.
func (p *Interface) Cancel() bool {
	if p.Step == NotPlacing {
		return false
	}
	p.Step = NotPlacing
	return true
}

func (p *Interface) reset() {
	mass := p.Body.Mass
	if !(mass > 0) {
		mass = universe.DefaultMass
	}
	p.Body = universe.Body{Mass: mass}
	p.Rotation = mgl64.Ident4()
	p.OrbitalRadius = 0
}

// orbitCenter returns the selected body for the orbital states. A selection
// that vanished mid-placement aborts the placement.
func (p *Interface) orbitCenter() (*universe.Body, bool) {
	center, ok := p.u.SelectedBody()
	if !ok {
		p.Step = NotPlacing
	}
	return center, ok
}

func (p *Interface) speed() float64 {
	return p.Body.Velocity.Len()
}

func (p *Interface) setSpeed(s float64) {
	p.Body.Velocity = p.Rotation.Mul4x1(mgl64.Vec4{0, 0, math.Max(0, s), 0}).Vec3()
}

func (p *Interface) rotate(dx, dy float64) {
	p.Rotation = p.Rotation.Mul4(mgl64.HomogRotate3DX(dx)).Mul4(mgl64.HomogRotate3DY(dy))
}

// placeOnOrbit positions the staged body on its orbit. The radius never
// drops below the sum of both radii, where the body would merge into center.
func (p *Interface) placeOnOrbit(center *universe.Body) {
	p.OrbitalRadius = math.Max(p.OrbitalRadius, center.Radius()+p.Body.Radius())
	offset := p.Rotation.Mul4x1(mgl64.Vec4{p.OrbitalRadius, 0, 0, 0}).Vec3()
	p.Body.Position = center.Position.Add(offset)
}

func clampMass(m float64) float64 {
	return mgl64.Clamp(m, universe.MinMass, universe.MaxMass)
}
