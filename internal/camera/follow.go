package camera

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/planets/internal/universe"
)

type FollowMode int

const (
	FollowNone FollowMode = iota
	FollowSingle
	FollowPlainAverage
	FollowWeightedAverage
)

func (m FollowMode) String() string {
	switch m {
	case FollowSingle:
		return "single"
	case FollowPlainAverage:
		return "average"
	case FollowWeightedAverage:
		return "weighted"
	default:
		return "none"
	}
}

// FocalPoint computes the point the camera looks at. It only reads u.
// Empty universes and dead single targets yield the origin.
func FocalPoint(u *universe.Universe, mode FollowMode, target universe.ID) mgl64.Vec3 {
	if u == nil || u.IsEmpty() {
		return mgl64.Vec3{}
	}

	switch mode {
	case FollowSingle:
		if b, ok := u.Get(target); ok {
			return b.Position
		}
	case FollowPlainAverage:
		var sum mgl64.Vec3
		for _, b := range u.All() {
			sum = sum.Add(b.Position)
		}
		return sum.Mul(1 / float64(u.Len()))
	case FollowWeightedAverage:
		var sum mgl64.Vec3
		total := 0.0
		for _, b := range u.All() {
			sum = sum.Add(b.Position.Mul(b.Mass))
			total += b.Mass
		}
		return sum.Mul(1 / total)
	}
	return mgl64.Vec3{}
}
