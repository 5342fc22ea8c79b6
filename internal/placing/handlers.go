package placing

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/planets/internal/camera"
	"github.com/san-kum/planets/internal/universe"
)

// HandlePointerMove updates the staged body from a pointer movement.
// holdPointer asks the caller to keep the pointer in place (relative mode)
// while the gesture continues.
func (p *Interface) HandlePointerMove(ptr Pointer) (consumed, holdPointer bool) {
	switch p.Step {
	case FreePositionXY:
		if pos, ok := ptr.Ray.IntersectPlaneZ(0); ok {
			p.Body.Position = pos
		}
		return true, false

	case FreePositionZ:
		p.Body.Position[2] += ptr.Delta.Y() * depthPerPixel
		return true, true

	case FreeVelocity:
		s := p.speed()
		p.rotate(ptr.Delta.X()*radiansPerPixel, ptr.Delta.Y()*radiansPerPixel)
		p.setSpeed(s)
		return true, true

	case OrbitalPlanet:
		center, ok := p.orbitCenter()
		if !ok {
			return false, false
		}
		if pos, hit := ptr.Ray.IntersectPlaneZ(center.Position.Z()); hit {
			offset := pos.Sub(center.Position)
			p.OrbitalRadius = offset.Len()
			p.Rotation = mgl64.HomogRotate3DZ(math.Atan2(offset.Y(), offset.X()))
			p.placeOnOrbit(center)
		}
		return true, false

	case OrbitalPlane:
		center, ok := p.orbitCenter()
		if !ok {
			return false, false
		}
		p.rotate(ptr.Delta.X()*radiansPerPixel, ptr.Delta.Y()*radiansPerPixel)
		p.placeOnOrbit(center)
		return true, true
	}
	return false, false
}

// HandlePrimaryAction advances the state machine. ray is the world ray under
// the pointer; only Firing uses it.
func (p *Interface) HandlePrimaryAction(ray camera.Ray) bool {
	switch p.Step {
	case FreePositionXY:
		p.Step = FreePositionZ
		return true

	case FreePositionZ:
		p.Step = FreeVelocity
		return true

	case FreeVelocity:
		p.Step = NotPlacing
		if id, err := p.u.AddBody(p.Body); err == nil {
			p.u.SetSelected(id)
		}
		return true

	case Firing:
		if ray.Direction.LenSqr() == 0 {
			return false
		}
		v := ray.Direction.Normalize().Mul(p.FiringSpeed * universe.VelocityFactor)
		_, err := p.u.Add(ray.Origin, v, p.FiringMass)
		return err == nil

	case OrbitalPlanet:
		center, ok := p.orbitCenter()
		if !ok {
			return false
		}
		p.placeOnOrbit(center)
		p.Step = OrbitalPlane
		return true

	case OrbitalPlane:
		center, ok := p.orbitCenter()
		if !ok {
			return false
		}
		p.placeOnOrbit(center)
		s := universe.CircularOrbitSpeed(p.u.GravityConstant(), center.Mass, p.Body.Mass, p.OrbitalRadius)
		tangent := p.Rotation.Mul4x1(mgl64.Vec4{0, s, 0, 0}).Vec3()
		p.Body.Velocity = center.Velocity.Add(tangent)
		if _, err := p.u.AddBody(p.Body); err != nil {
			return false
		}
		// the center stays selected so further orbits can be added
		p.Step = NotPlacing
		return true
	}
	return false
}

// HandleSecondaryAxis applies a wheel-like delta: mass while positioning,
// speed while aiming, radius in the orbital states.
func (p *Interface) HandleSecondaryAxis(delta float64) bool {
	switch p.Step {
	case FreePositionXY, FreePositionZ:
		p.Body.Mass = clampMass(p.Body.Mass + delta*p.Body.Mass)
		return true

	case FreeVelocity:
		p.setSpeed(p.speed() + delta*speedPerAxisUnit)
		return true

	case OrbitalPlanet, OrbitalPlane:
		center, ok := p.orbitCenter()
		if !ok {
			return false
		}
		p.OrbitalRadius += delta * p.OrbitalRadius
		p.placeOnOrbit(center)
		return true
	}
	return false
}

// HandleAnalogStick applies a stick deflection held for elapsedMicroseconds.
// modifier selects the alternate axis of each state. cam orients free
// movement so that pushing up moves away from the viewer.
func (p *Interface) HandleAnalogStick(stick mgl64.Vec2, modifier bool, cam camera.Camera, elapsedMicroseconds int64) bool {
	secs := float64(elapsedMicroseconds) / microsPerSecond
	if secs < 0 {
		secs = 0
	}

	switch p.Step {
	case FreePositionXY, FreePositionZ:
		step := cam.Distance * stickMoveRate * secs
		if modifier {
			p.Body.Position[2] += stick.Y() * step
			return true
		}
		sin, cos := math.Sincos(cam.ZRotation)
		right := mgl64.Vec3{cos, -sin, 0}
		forward := mgl64.Vec3{sin, cos, 0}
		p.Body.Position = p.Body.Position.Add(right.Mul(stick.X() * step)).Add(forward.Mul(stick.Y() * step))
		return true

	case FreeVelocity:
		if modifier {
			p.setSpeed(p.speed() + stick.Y()*stickSpeedRate*secs)
			return true
		}
		s := p.speed()
		p.rotate(stick.X()*stickTurnRate*secs, stick.Y()*stickTurnRate*secs)
		p.setSpeed(s)
		return true

	case OrbitalPlanet:
		center, ok := p.orbitCenter()
		if !ok {
			return false
		}
		if modifier {
			p.Body.Mass = clampMass(p.Body.Mass * (1 + stick.Y()*stickScaleRate*secs))
			return true
		}
		p.OrbitalRadius *= 1 + stick.Y()*stickScaleRate*secs
		p.placeOnOrbit(center)
		return true

	case OrbitalPlane:
		center, ok := p.orbitCenter()
		if !ok {
			return false
		}
		p.rotate(stick.X()*stickTurnRate*secs, stick.Y()*stickTurnRate*secs)
		p.placeOnOrbit(center)
		return true
	}
	return false
}
