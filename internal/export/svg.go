// Package export renders universes and recorded runs as SVG images.
package export

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/planets/internal/storage"
	"github.com/san-kum/planets/internal/universe"
	"github.com/san-kum/planets/internal/viz"
)

// Palette colors trails by body id.
var Palette = []string{"#00ff9f", "#ff6ac1", "#57c7ff", "#f3f99d", "#ff9f43", "#c792ea", "#5af78e", "#ff5c57"}

// CanvasToSVG draws every lit dot of a braille canvas as a circle, scale
// SVG units per dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	w, h := canvas.Dots()
	var sb strings.Builder
	writeHeader(&sb, float64(w)*scale, float64(h)*scale)
	sb.WriteString("<g fill=\"#00ff00\">\n")

	dotRadius := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// Trail is the top-down (XY) path of one body.
type Trail struct {
	ID     universe.ID
	Points []mgl64.Vec3
	// Radius of the marker drawn at the last point, in world units.
	Radius float64
}

// TrailsFromUniverse collects the recorded paths of every body, ending each
// at the body's current position.
func TrailsFromUniverse(u *universe.Universe) []Trail {
	trails := make([]Trail, 0, u.Len())
	for id, b := range u.All() {
		pts := append(slices.Clone(b.Path), b.Position)
		trails = append(trails, Trail{ID: id, Points: pts, Radius: b.Radius()})
	}
	return trails
}

// TrailsFromFrames builds trails from recorded frames. Marker radii come from
// each body's last sample.
func TrailsFromFrames(frames []storage.Frame) []Trail {
	radii := make(map[universe.ID]float64)
	for _, f := range frames {
		for _, b := range f.Bodies {
			radii[b.ID] = b.Radius
		}
	}
	trails := make([]Trail, 0, len(radii))
	for id, pts := range storage.Trails(frames) {
		trails = append(trails, Trail{ID: id, Points: pts, Radius: radii[id]})
	}
	return trails
}

// TrailsToSVG draws every trail projected onto the XY plane with shared
// bounds and 10% padding. Trails are drawn in ascending id order.
func TrailsToSVG(trails []Trail, width, height int) string {
	if len(trails) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, tr := range trails {
		for _, p := range tr.Points {
			minX, maxX = math.Min(minX, p.X()-tr.Radius), math.Max(maxX, p.X()+tr.Radius)
			minY, maxY = math.Min(minY, p.Y()-tr.Radius), math.Max(maxY, p.Y()+tr.Radius)
		}
	}
	if math.IsInf(minX, 0) {
		return ""
	}

	// equal scale on both axes keeps orbits round
	rng := math.Max(maxX-minX, maxY-minY)
	if rng == 0 {
		rng = 1
	}
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	rng *= 1.2
	scale := math.Min(float64(width), float64(height)) / rng

	toScreen := func(p mgl64.Vec3) (float64, float64) {
		return float64(width)/2 + (p.X()-cx)*scale, float64(height)/2 - (p.Y()-cy)*scale
	}

	sorted := slices.Clone(trails)
	slices.SortFunc(sorted, func(a, b Trail) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	var sb strings.Builder
	writeHeader(&sb, float64(width), float64(height))

	for _, tr := range sorted {
		if len(tr.Points) == 0 {
			continue
		}
		color := Palette[int(tr.ID)%len(Palette)]

		if len(tr.Points) > 1 {
			fmt.Fprintf(&sb, "<path fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" stroke-opacity=\"0.7\" d=\"M", color)
			for i, p := range tr.Points {
				x, y := toScreen(p)
				if i == 0 {
					fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
				} else {
					fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
				}
			}
			sb.WriteString("\"/>\n")
		}

		x, y := toScreen(tr.Points[len(tr.Points)-1])
		r := math.Max(1.5, tr.Radius*scale)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\"><title>body %d</title></circle>\n", x, y, r, color, tr.ID)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func writeHeader(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}
