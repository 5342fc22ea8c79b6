package universe

import "github.com/go-gl/mathgl/mgl64"

// MergeEvent describes one body absorbing another.
type MergeEvent struct {
	Survivor ID
	Absorbed ID
	Mass     float64 // mass of the survivor after the merge
	Position mgl64.Vec3
}

// AdvanceEvent summarizes one Advance call.
type AdvanceEvent struct {
	Elapsed  int64 // microseconds
	Dt       float64
	Substeps int
	Merges   int
	Bodies   int
}

// Observer receives notifications from Advance. Observers must not mutate
// the universe.
type Observer interface {
	OnMerge(e MergeEvent)
	OnAdvance(e AdvanceEvent)
}
