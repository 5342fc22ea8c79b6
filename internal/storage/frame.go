package storage

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/planets/internal/universe"
)

// BodySample is the state of one body at a recorded frame. Velocity is in
// simulation units.
type BodySample struct {
	ID       universe.ID `json:"id"`
	Position mgl64.Vec3  `json:"position"`
	Velocity mgl64.Vec3  `json:"velocity"`
	Mass     float64     `json:"mass"`
	Radius   float64     `json:"radius"`
}

// Frame is a snapshot of a universe.
type Frame struct {
	Index    int          `json:"frame"`
	Time     float64      `json:"time"`
	Selected universe.ID  `json:"selected,omitempty"`
	Bodies   []BodySample `json:"bodies"`
}

// Capture snapshots u in ascending id order.
func Capture(u *universe.Universe, index int, t float64) Frame {
	f := Frame{
		Index:    index,
		Time:     t,
		Selected: u.Selected(),
		Bodies:   make([]BodySample, 0, u.Len()),
	}
	for id, b := range u.All() {
		f.Bodies = append(f.Bodies, BodySample{
			ID:       id,
			Position: b.Position,
			Velocity: b.Velocity,
			Mass:     b.Mass,
			Radius:   b.Radius(),
		})
	}
	return f
}

// TotalMass sums the body masses of the frame.
func (f Frame) TotalMass() float64 {
	m := 0.0
	for _, b := range f.Bodies {
		m += b.Mass
	}
	return m
}

func (f Frame) KineticEnergy() float64 {
	ke := 0.0
	for _, b := range f.Bodies {
		ke += 0.5 * b.Mass * b.Velocity.LenSqr()
	}
	return ke
}

// Trails groups body positions across frames by id, in frame order.
func Trails(frames []Frame) map[universe.ID][]mgl64.Vec3 {
	trails := make(map[universe.ID][]mgl64.Vec3)
	for _, f := range frames {
		for _, b := range f.Bodies {
			trails[b.ID] = append(trails[b.ID], b.Position)
		}
	}
	return trails
}
