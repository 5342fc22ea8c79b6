package export

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/planets/internal/storage"
	"github.com/san-kum/planets/internal/universe"
	"github.com/san-kum/planets/internal/viz"
)

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(4, 2)
	c.Set(0, 0)
	c.Set(7, 7)

	svg := CanvasToSVG(c, 2)
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("not an svg document: %q", svg)
	}
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("expected 2 dots, got %d", n)
	}
	if CanvasToSVG(nil, 1) != "" {
		t.Error("expected empty output for nil canvas")
	}
}

func TestTrailsToSVG(t *testing.T) {
	trails := []Trail{
		{ID: 2, Points: []mgl64.Vec3{{0, 0, 0}, {1, 1, 0}, {2, 0, 0}}, Radius: 0.1},
		{ID: 1, Points: []mgl64.Vec3{{5, 5, 0}}, Radius: 0.5},
	}

	svg := TrailsToSVG(trails, 400, 300)
	if strings.Count(svg, "<path") != 1 {
		t.Errorf("expected a single path for the moving body:\n%s", svg)
	}
	if strings.Count(svg, "<circle") != 2 {
		t.Errorf("expected a marker per body:\n%s", svg)
	}
	if strings.Index(svg, "body 1") > strings.Index(svg, "body 2") {
		t.Error("expected trails in ascending id order")
	}
}

func TestTrailsToSVG_Empty(t *testing.T) {
	if TrailsToSVG(nil, 100, 100) != "" {
		t.Error("expected empty output without trails")
	}
	if TrailsToSVG([]Trail{{ID: 1}}, 100, 100) != "" {
		t.Error("expected empty output without points")
	}
}

func TestTrailsFromUniverse(t *testing.T) {
	u := universe.New(universe.DefaultOptions())
	u.Add(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1e-2, 0, 0}, 10)
	for i := 0; i < 5; i++ {
		u.Advance(16667)
	}

	trails := TrailsFromUniverse(u)
	if len(trails) != 1 {
		t.Fatalf("expected 1 trail, got %d", len(trails))
	}
	b, _ := u.Get(trails[0].ID)
	last := trails[0].Points[len(trails[0].Points)-1]
	if last != b.Position {
		t.Errorf("expected trail to end at the body, got %v", last)
	}
	if len(trails[0].Points) < 2 {
		t.Error("expected recorded path points")
	}
}

func TestTrailsFromFrames(t *testing.T) {
	frames := []storage.Frame{
		{Index: 0, Bodies: []storage.BodySample{{ID: 1, Position: mgl64.Vec3{0, 0, 0}, Radius: 0.5}, {ID: 2, Radius: 1}}},
		{Index: 1, Bodies: []storage.BodySample{{ID: 1, Position: mgl64.Vec3{1, 0, 0}, Radius: 0.75}}},
	}

	trails := TrailsFromFrames(frames)
	if len(trails) != 2 {
		t.Fatalf("expected 2 trails, got %d", len(trails))
	}
	for _, tr := range trails {
		switch tr.ID {
		case 1:
			if len(tr.Points) != 2 || tr.Radius != 0.75 {
				t.Errorf("unexpected trail for body 1: %+v", tr)
			}
		case 2:
			if len(tr.Points) != 1 || tr.Radius != 1 {
				t.Errorf("unexpected trail for body 2: %+v", tr)
			}
		}
	}
}
