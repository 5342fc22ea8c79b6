package camera

import "github.com/go-gl/mathgl/mgl64"

type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// At returns Origin + t·Direction.
func (r Ray) At(t float64) mgl64.Vec3 { return r.Origin.Add(r.Direction.Mul(t)) }

// IntersectPlaneZ intersects the ray with the horizontal plane at height z.
// Rays parallel to the plane or pointing away from it do not intersect.
func (r Ray) IntersectPlaneZ(z float64) (mgl64.Vec3, bool) {
	dz := r.Direction.Z()
	if dz == 0 {
		return mgl64.Vec3{}, false
	}
	t := (z - r.Origin.Z()) / dz
	if t < 0 {
		return mgl64.Vec3{}, false
	}
	p := r.At(t)
	p[2] = z
	return p, true
}
