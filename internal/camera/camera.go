// Package camera positions the viewer around a universe and converts between
// screen coordinates and world rays.
package camera

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/planets/internal/universe"
)

const (
	MinDistance = 10.0
	MaxDistance = 1.0e4

	FieldOfView = math.Pi / 4
	Near        = 0.1
	Far         = 1.0e6

	defaultDistance  = 100.0
	defaultXRotation = math.Pi / 4
)

// Camera orbits a focal point. XRotation is the pitch above the XY plane,
// ZRotation the yaw around the Z axis, both in radians.
type Camera struct {
	Distance  float64
	XRotation float64
	ZRotation float64

	Mode      FollowMode
	Following universe.ID

	// Position is the focal point computed by the last Update.
	Position mgl64.Vec3
}

func New() *Camera {
	c := &Camera{}
	c.Reset()
	return c
}

// Reset restores distance and orientation. The follow mode is kept.
func (c *Camera) Reset() {
	c.Distance = defaultDistance
	c.XRotation = defaultXRotation
	c.ZRotation = 0
}

// Bound clamps distance and pitch and wraps the yaw into [0, 2π).
func (c *Camera) Bound() {
	c.Distance = mgl64.Clamp(c.Distance, MinDistance, MaxDistance)
	c.XRotation = mgl64.Clamp(c.XRotation, -math.Pi/2, math.Pi/2)
	c.ZRotation = math.Mod(c.ZRotation, 2*math.Pi)
	if c.ZRotation < 0 {
		c.ZRotation += 2 * math.Pi
	}
}

// Update recomputes the focal point from the current universe state.
func (c *Camera) Update(u *universe.Universe) {
	c.Position = FocalPoint(u, c.Mode, c.Following)
}

// Zoom moves the camera toward (positive delta) or away from the focal point
// proportionally to the current distance.
func (c *Camera) Zoom(delta float64) {
	c.Distance -= delta * c.Distance * 0.1
	c.Bound()
}

// Rotate applies a pointer delta to yaw and pitch.
func (c *Camera) Rotate(dx, dy float64) {
	c.XRotation += dy * 0.01
	c.ZRotation += dx * 0.01
	c.Bound()
}

// FollowNext follows the body after the current one in ascending id order,
// wrapping around. An empty universe leaves the camera unchanged.
func (c *Camera) FollowNext(u *universe.Universe) {
	ids := u.IDs()
	if len(ids) == 0 {
		return
	}
	c.Mode = FollowSingle
	i, ok := slices.BinarySearch(ids, c.Following)
	if !ok || i+1 == len(ids) {
		c.Following = ids[0]
		return
	}
	c.Following = ids[i+1]
}

// FollowPrevious is the reverse of FollowNext. When the current target is not
// alive it starts from the first body, like FollowNext.
func (c *Camera) FollowPrevious(u *universe.Universe) {
	ids := u.IDs()
	if len(ids) == 0 {
		return
	}
	c.Mode = FollowSingle
	i, ok := slices.BinarySearch(ids, c.Following)
	switch {
	case !ok:
		c.Following = ids[0]
	case i == 0:
		c.Following = ids[len(ids)-1]
	default:
		c.Following = ids[i-1]
	}
}

func (c *Camera) FollowSelection(u *universe.Universe) {
	c.Following = u.Selected()
	c.Mode = FollowSingle
}

func (c *Camera) ClearFollow() {
	c.Following = universe.None
	c.Mode = FollowNone
}

func (c *Camera) FollowPlainAverage()    { c.Mode = FollowPlainAverage }
func (c *Camera) FollowWeightedAverage() { c.Mode = FollowWeightedAverage }

// View returns the world to eye transform.
func (c *Camera) View() mgl64.Mat4 {
	m := mgl64.Translate3D(0, 0, -c.Distance)
	m = m.Mul4(mgl64.HomogRotate3DX(c.XRotation - math.Pi/2))
	m = m.Mul4(mgl64.HomogRotate3DZ(c.ZRotation))
	return m.Mul4(mgl64.Translate3D(-c.Position.X(), -c.Position.Y(), -c.Position.Z()))
}

func (c *Camera) Projection(aspect float64) mgl64.Mat4 {
	if !(aspect > 0) {
		aspect = 1
	}
	return mgl64.Perspective(FieldOfView, aspect, Near, Far)
}

// Eye returns the camera position in world space.
func (c *Camera) Eye() mgl64.Vec3 {
	return c.View().Inv().Mul4x1(mgl64.Vec4{0, 0, 0, 1}).Vec3()
}

// ViewRay starts at the eye and points at the focal point.
func (c *Camera) ViewRay() Ray {
	eye := c.Eye()
	return Ray{Origin: eye, Direction: c.Position.Sub(eye).Normalize()}
}

// RayAt returns the world ray under the window coordinate (x, y) of a
// width×height viewport with y growing downward. The origin lies on the near
// plane and the direction is normalized.
func (c *Camera) RayAt(x, y float64, width, height int) Ray {
	if width <= 0 || height <= 0 {
		return c.ViewRay()
	}
	view := c.View()
	proj := c.Projection(float64(width) / float64(height))

	wy := float64(height) - y
	near, err := mgl64.UnProject(mgl64.Vec3{x, wy, 0}, view, proj, 0, 0, width, height)
	if err != nil {
		return c.ViewRay()
	}
	far, err := mgl64.UnProject(mgl64.Vec3{x, wy, 1}, view, proj, 0, 0, width, height)
	if err != nil {
		return c.ViewRay()
	}
	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}

// ProjectPoint maps a world point onto a width×height viewport with y growing
// downward. depth is the distance along the view axis; visible is false for
// points behind the camera.
func (c *Camera) ProjectPoint(p mgl64.Vec3, width, height float64) (x, y, depth float64, visible bool) {
	if !(width > 0 && height > 0) {
		return 0, 0, 0, false
	}
	eye := c.View().Mul4x1(p.Vec4(1))
	clip := c.Projection(width / height).Mul4x1(eye)
	if clip.W() <= Near {
		return 0, 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	x = (ndc.X() + 1) / 2 * width
	y = (1 - ndc.Y()) / 2 * height
	return x, y, -eye.Z(), true
}
