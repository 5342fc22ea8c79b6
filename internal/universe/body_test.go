package universe

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestRadiusForMass(t *testing.T) {
	tests := []struct {
		mass     float64
		expected float64
	}{
		{4 * math.Pi / 3, 0.1},
		{4 * math.Pi / 3 * 1000, 1.0},
		{1000, math.Cbrt(3000/(4*math.Pi)) / 10},
	}

	for _, tt := range tests {
		if got := RadiusForMass(tt.mass); math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("RadiusForMass(%v) = %v, want %v", tt.mass, got, tt.expected)
		}
	}
}

func TestBody_RadiusFollowsMass(t *testing.T) {
	b := Body{Mass: 100}
	r1 := b.Radius()
	b.Mass = 800
	if got := b.Radius(); math.Abs(got-2*r1) > 1e-12 {
		t.Errorf("radius of 8x mass should double: got %v, want %v", got, 2*r1)
	}
}

func TestBody_UIVelocity(t *testing.T) {
	var b Body
	b.SetUIVelocity(mgl64.Vec3{1, 2, 3})
	if b.Velocity != (mgl64.Vec3{1 * VelocityFactor, 2 * VelocityFactor, 3 * VelocityFactor}) {
		t.Errorf("SetUIVelocity did not apply velocity factor: %v", b.Velocity)
	}
	if !b.UIVelocity().ApproxEqual(mgl64.Vec3{1, 2, 3}) {
		t.Errorf("UIVelocity = %v", b.UIVelocity())
	}
}

func TestBody_IsFinite(t *testing.T) {
	tests := []struct {
		name  string
		body  Body
		valid bool
	}{
		{"zero", Body{Mass: 1}, true},
		{"nan position", Body{Position: mgl64.Vec3{math.NaN(), 0, 0}, Mass: 1}, false},
		{"inf velocity", Body{Velocity: mgl64.Vec3{0, math.Inf(-1), 0}, Mass: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.body.IsFinite(); got != tt.valid {
				t.Errorf("IsFinite() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestBody_UpdatePathRecordDistance(t *testing.T) {
	b := Body{Mass: 1}
	b.updatePath(10, 1.0)
	if len(b.Path) != 1 {
		t.Fatalf("first update should record, got %d points", len(b.Path))
	}

	b.Position = mgl64.Vec3{0.5, 0, 0}
	b.updatePath(10, 1.0)
	if len(b.Path) != 1 {
		t.Errorf("moving less than the record distance should not record, got %d points", len(b.Path))
	}

	b.Position = mgl64.Vec3{2, 0, 0}
	b.updatePath(10, 1.0)
	if len(b.Path) != 2 {
		t.Errorf("expected 2 points, got %d", len(b.Path))
	}
}

func TestBody_UpdatePathBound(t *testing.T) {
	b := Body{Mass: 1}
	for i := 0; i < 50; i++ {
		b.Position = mgl64.Vec3{float64(i), 0, 0}
		b.updatePath(20, 0)
		if len(b.Path) > 20 {
			t.Fatalf("trail exceeded cap at step %d: %d", i, len(b.Path))
		}
	}
	if b.Path[len(b.Path)-1] != (mgl64.Vec3{49, 0, 0}) {
		t.Errorf("trail should end at the latest position, got %v", b.Path[len(b.Path)-1])
	}

	// stationary body with a lowered cap shrinks one point per update
	for i := 0; i < 5; i++ {
		b.updatePath(10, 0)
	}
	if len(b.Path) != 15 {
		t.Errorf("expected 15 points after 5 stationary updates, got %d", len(b.Path))
	}
	for i := 0; i < 20; i++ {
		b.updatePath(10, 0)
	}
	if len(b.Path) != 10 {
		t.Errorf("expected trail to settle at new cap 10, got %d", len(b.Path))
	}
}

func TestBody_Clone(t *testing.T) {
	b := Body{Mass: 1, Path: []mgl64.Vec3{{1, 2, 3}}}
	c := b.Clone()
	c.Path[0] = mgl64.Vec3{}
	if b.Path[0] != (mgl64.Vec3{1, 2, 3}) {
		t.Error("Clone shares the trail with the original")
	}
}
