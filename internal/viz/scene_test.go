package viz

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/planets/internal/camera"
	"github.com/san-kum/planets/internal/placing"
	"github.com/san-kum/planets/internal/universe"
)

func newScene() Scene {
	return Scene{Canvas: NewCanvas(40, 20), Camera: camera.New()}
}

func TestSceneProjectCenter(t *testing.T) {
	s := newScene()
	x, y, depth, ok := s.Project(mgl64.Vec3{})
	if !ok {
		t.Fatal("origin should be visible")
	}
	if x != 40 || y != 40 {
		t.Errorf("expected origin at (40, 40), got (%d, %d)", x, y)
	}
	if math.Abs(depth-100) > 1e-6 {
		t.Errorf("expected depth 100, got %v", depth)
	}

	// behind the camera
	eye := s.Camera.Eye()
	if _, _, _, ok := s.Project(eye.Mul(2)); ok {
		t.Error("point behind the camera should not be visible")
	}
}

func TestSceneRayHitsFocalPoint(t *testing.T) {
	s := newScene()
	hit, ok := s.Ray(40, 40).IntersectPlaneZ(0)
	if !ok {
		t.Fatal("center ray should hit the XY plane")
	}
	if hit.Len() > 2 {
		t.Errorf("expected the center ray near the origin, got %v", hit)
	}
}

func TestSceneRenderBodies(t *testing.T) {
	s := newScene()
	u := universe.New(universe.DefaultOptions())
	id, _ := u.Add(mgl64.Vec3{}, mgl64.Vec3{}, 1.0e6)

	s.Render(u, nil)
	if !s.Canvas.IsSet(40, 40) {
		t.Error("expected the body to be drawn at the center")
	}
	r := s.ScreenRadius(universe.RadiusForMass(1.0e6), 100)
	if r < 3 {
		t.Fatalf("expected a visible disc, got radius %d", r)
	}
	ring := r + 3
	if s.Canvas.IsSet(40+ring, 40) {
		t.Error("unselected body should have no ring")
	}

	u.SetSelected(id)
	s.Render(u, nil)
	if !s.Canvas.IsSet(40+ring, 40) {
		t.Error("expected a ring around the selected body")
	}
}

func TestSceneRenderStagedBody(t *testing.T) {
	s := newScene()
	u := universe.New(universe.DefaultOptions())
	p := placing.New(u)

	p.BeginInteractiveCreation()
	p.Body.Position = mgl64.Vec3{}
	s.Render(u, p)
	if u.Len() != 0 {
		t.Fatal("rendering must not add bodies")
	}
	lit := 0
	w, h := s.Canvas.Dots()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if s.Canvas.IsSet(x, y) {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("expected the staged body to be drawn")
	}

	p.Cancel()
	s.Render(u, p)
	if s.Canvas.IsSet(40, 40) {
		t.Error("cancelled placement should not be drawn")
	}
}

func TestScenePick(t *testing.T) {
	s := newScene()
	u := universe.New(universe.DefaultOptions())
	near, _ := u.Add(mgl64.Vec3{}, mgl64.Vec3{}, 1.0e6)

	if got := s.Pick(u, 41, 40); got != near {
		t.Errorf("expected body %d, got %d", near, got)
	}
	if got := s.Pick(u, 0, 0); got != universe.None {
		t.Errorf("expected no body at the corner, got %d", got)
	}

	// a body in front of the first one wins
	front, _ := u.Add(s.Camera.Eye().Mul(0.5), mgl64.Vec3{}, 1.0e6)
	if got := s.Pick(u, 40, 40); got != front {
		t.Errorf("expected the nearer body %d, got %d", front, got)
	}
}
