package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/planets/internal/camera"
	"github.com/san-kum/planets/internal/placing"
	"github.com/san-kum/planets/internal/universe"
)

const (
	orbitSegments = 48
	// staged velocity arrows are drawn this many world units per UI unit
	arrowScale = 1.0
	// segments reaching farther than this many canvas sizes off screen are skipped
	clipMargin = 4
)

// Scene projects a universe through a camera onto a canvas.
type Scene struct {
	Canvas *Canvas
	Camera *camera.Camera
}

func (s Scene) dims() (float64, float64) {
	w, h := s.Canvas.Dots()
	return float64(w), float64(h)
}

// Project maps a world point to canvas dots.
func (s Scene) Project(p mgl64.Vec3) (x, y int, depth float64, ok bool) {
	w, h := s.dims()
	fx, fy, depth, ok := s.Camera.ProjectPoint(p, w, h)
	if !ok || math.Abs(fx) > clipMargin*w || math.Abs(fy) > clipMargin*h {
		return 0, 0, 0, false
	}
	return int(math.Round(fx)), int(math.Round(fy)), depth, true
}

// ScreenRadius is the projected radius in dots of a sphere of radius r seen
// at depth.
func (s Scene) ScreenRadius(r, depth float64) int {
	if !(depth > 0) {
		return 0
	}
	_, h := s.dims()
	focal := h / 2 / math.Tan(camera.FieldOfView/2)
	return int(r * focal / depth)
}

// Ray returns the world ray under the canvas dot (x, y).
func (s Scene) Ray(x, y int) camera.Ray {
	w, h := s.Canvas.Dots()
	return s.Camera.RayAt(float64(x)+0.5, float64(y)+0.5, w, h)
}

// Render clears the canvas and draws trails, bodies, the selection marker and
// any body staged by p. p may be nil.
func (s Scene) Render(u *universe.Universe, p *placing.Interface) {
	s.Canvas.Clear()
	for _, b := range u.All() {
		s.polyline(b.Path)
		if n := len(b.Path); n > 0 {
			s.segment(b.Path[n-1], b.Position)
		}
	}
	for id, b := range u.All() {
		x, y, depth, ok := s.Project(b.Position)
		if !ok {
			continue
		}
		r := s.ScreenRadius(b.Radius(), depth)
		s.Canvas.FillCircle(x, y, r)
		if id == u.Selected() {
			s.Canvas.Circle(x, y, r+3)
		}
	}
	if p != nil {
		s.renderPlacing(u, p)
	}
}

func (s Scene) renderPlacing(u *universe.Universe, p *placing.Interface) {
	switch p.Step {
	case placing.NotPlacing, placing.Firing:
		return
	case placing.OrbitalPlanet, placing.OrbitalPlane:
		if center, ok := u.SelectedBody(); ok {
			s.orbit(center.Position, p.Rotation, p.OrbitalRadius)
		}
	}

	b := p.Body
	x, y, depth, ok := s.Project(b.Position)
	if !ok {
		return
	}
	r := s.ScreenRadius(b.Radius(), depth)
	s.Canvas.Circle(x, y, r)
	if p.Step == placing.FreePositionZ {
		// drop line to the XY plane
		s.segment(b.Position, mgl64.Vec3{b.Position.X(), b.Position.Y(), 0})
	}
	if v := b.UIVelocity(); v.Len() > 0 {
		s.segment(b.Position, b.Position.Add(v.Mul(arrowScale)))
	}
}

// orbit draws the circle of the given radius in the XY plane of rotation
// around center.
func (s Scene) orbit(center mgl64.Vec3, rotation mgl64.Mat4, radius float64) {
	pts := make([]mgl64.Vec3, 0, orbitSegments+1)
	for i := 0; i <= orbitSegments; i++ {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / orbitSegments)
		off := rotation.Mul4x1(mgl64.Vec4{radius * cos, radius * sin, 0, 0}).Vec3()
		pts = append(pts, center.Add(off))
	}
	s.polyline(pts)
}

func (s Scene) polyline(pts []mgl64.Vec3) {
	for i := 1; i < len(pts); i++ {
		s.segment(pts[i-1], pts[i])
	}
}

func (s Scene) segment(a, b mgl64.Vec3) {
	x0, y0, _, ok0 := s.Project(a)
	x1, y1, _, ok1 := s.Project(b)
	if ok0 && ok1 {
		s.Canvas.DrawLine(x0, y0, x1, y1)
	}
}

// Pick returns the nearest body whose projected disc covers the canvas dot
// (x, y), or universe.None.
func (s Scene) Pick(u *universe.Universe, x, y int) universe.ID {
	best, bestDepth := universe.None, math.Inf(1)
	for id, b := range u.All() {
		bx, by, depth, ok := s.Project(b.Position)
		if !ok {
			continue
		}
		r := max(s.ScreenRadius(b.Radius(), depth), 2)
		dx, dy := bx-x, by-y
		if dx*dx+dy*dy <= r*r && depth < bestDepth {
			best, bestDepth = id, depth
		}
	}
	return best
}
