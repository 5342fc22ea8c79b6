// Package universe provides the N-body core: a set of mutually gravitating
// bodies that are advanced in time, merged on collision, and edited by
// front-ends through an id-based API.
//
//   - [Body]: point mass with position, velocity, derived radius and a trail
//   - [Universe]: owns the bodies, the selection and the simulation speed
//   - [ID]: stable body identity that survives merges and deletions
//
// # Example
//
//	u := universe.New(universe.DefaultOptions())
//	a, _ := u.Add(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{}, 1000)
//	u.SetSelected(a)
//	u.Advance(16667)
//
// # Thread Safety
//
// A Universe is NOT thread-safe. It is owned by a single frame loop that
// gathers input, advances physics and renders, strictly in that order.
// Options.Workers only parallelizes the force accumulation inside Advance;
// merges are always applied serially afterwards.
package universe
