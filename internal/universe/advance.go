package universe

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// minRowsPerWorker keeps tiny universes on the serial path.
const minRowsPerWorker = 16

type collision struct{ i, j int }

// Advance moves the simulation forward by one rendered frame. The frame's
// time is split into StepsPerFrame Euler substeps, each consisting of
// pairwise gravity, collision merging and position integration.
// A paused universe (speed <= 0) is left untouched.
func (u *Universe) Advance(elapsedMicroseconds int64) {
	if u.speed <= 0 || elapsedMicroseconds <= 0 {
		return
	}

	dt := u.speed * float64(elapsedMicroseconds) * u.timeScale / float64(u.stepsPerFrame)

	merges := 0
	for s := 0; s < u.stepsPerFrame; s++ {
		merges += u.substep(dt)
	}

	ev := AdvanceEvent{
		Elapsed:  elapsedMicroseconds,
		Dt:       dt,
		Substeps: u.stepsPerFrame,
		Merges:   merges,
		Bodies:   len(u.bodies),
	}
	for _, o := range u.observers {
		o.OnAdvance(ev)
	}
}

// substep runs one integration step and returns the number of merges.
// Forces and collision flags are computed into scratch buffers first; merges
// and integration are applied in a second pass so the result does not depend
// on map iteration order.
func (u *Universe) substep(dt float64) int {
	u.ids = u.ids[:0]
	for id := range u.bodies {
		u.ids = append(u.ids, id)
	}
	slices.Sort(u.ids)

	n := len(u.ids)
	bodies := make([]*Body, n)
	radii := make([]float64, n)
	for i, id := range u.ids {
		bodies[i] = u.bodies[id]
		radii[i] = bodies[i].Radius()
	}

	if cap(u.deltas) < n {
		u.deltas = make([]mgl64.Vec3, n)
	}
	u.deltas = u.deltas[:n]
	clear(u.deltas)

	var collisions []collision
	if u.workers > 1 && n > minRowsPerWorker {
		collisions = u.accumulateParallel(bodies, radii, dt)
	} else {
		collisions = u.accumulate(bodies, radii, dt)
	}

	for i, b := range bodies {
		b.Velocity = b.Velocity.Add(u.deltas[i])
	}

	merges := u.merge(bodies, collisions)

	for _, b := range bodies {
		if b == nil {
			continue
		}
		b.Position = b.Position.Add(b.Velocity.Mul(dt))
		b.updatePath(u.pathLength, u.pathRecordDistanceSq)
	}

	return merges
}

// interact returns the velocity change of a caused by b and whether the pair
// collides. Coincident bodies exert no force on each other.
func (u *Universe) interact(a, b *Body, ra, rb, dt float64) (mgl64.Vec3, bool) {
	direction := b.Position.Sub(a.Position)
	distSq := direction.LenSqr()
	// radius_a + radius_b/2 is asymmetric on purpose: it matches the
	// behavior of the original simulation.
	collide := math.Sqrt(distSq) < ra+rb/2
	// overflowed separations contribute nothing as well
	if distSq == 0 || !finite(distSq) {
		return mgl64.Vec3{}, collide
	}
	force := u.g * a.Mass * b.Mass / distSq
	return direction.Mul(force * dt / a.Mass), collide
}

func (u *Universe) accumulate(bodies []*Body, radii []float64, dt float64) []collision {
	var collisions []collision
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			dv, collide := u.interact(bodies[i], bodies[j], radii[i], radii[j], dt)
			if dv != (mgl64.Vec3{}) {
				u.deltas[i] = u.deltas[i].Add(dv)
				// equal and opposite: m_i·dv_i = -m_j·dv_j
				u.deltas[j] = u.deltas[j].Sub(dv.Mul(bodies[i].Mass / bodies[j].Mass))
			}
			if collide {
				collisions = append(collisions, collision{i, j})
			}
		}
	}
	return collisions
}

// accumulateParallel computes whole rows per worker. Row i only writes
// deltas[i] and rows[i], so workers never share a slot.
func (u *Universe) accumulateParallel(bodies []*Body, radii []float64, dt float64) []collision {
	rows := make([][]collision, len(bodies))
	parallelFor(len(bodies), u.workers, minRowsPerWorker, func(start, end int) {
		for i := start; i < end; i++ {
			var dv mgl64.Vec3
			for j := range bodies {
				if j == i {
					continue
				}
				d, collide := u.interact(bodies[i], bodies[j], radii[i], radii[j], dt)
				dv = dv.Add(d)
				if collide && j > i {
					rows[i] = append(rows[i], collision{i, j})
				}
			}
			u.deltas[i] = dv
		}
	})

	var collisions []collision
	for _, r := range rows {
		collisions = append(collisions, r...)
	}
	return collisions
}

// merge applies collisions in (i, j) order. The lower id survives; bodies
// absorbed earlier in the same substep are skipped.
func (u *Universe) merge(bodies []*Body, collisions []collision) int {
	merges := 0
	for _, c := range collisions {
		a, b := bodies[c.i], bodies[c.j]
		if a == nil || b == nil {
			continue
		}

		total := a.Mass + b.Mass
		a.Position = a.Position.Mul(a.Mass).Add(b.Position.Mul(b.Mass)).Mul(1 / total)
		a.Velocity = a.Velocity.Mul(a.Mass).Add(b.Velocity.Mul(b.Mass)).Mul(1 / total)
		a.Mass = total
		a.Path = a.Path[:0]

		survivor, absorbed := u.ids[c.i], u.ids[c.j]
		delete(u.bodies, absorbed)
		bodies[c.j] = nil
		if u.selected == absorbed {
			u.selected = survivor
		}
		merges++

		ev := MergeEvent{Survivor: survivor, Absorbed: absorbed, Mass: total, Position: a.Position}
		for _, o := range u.observers {
			o.OnMerge(ev)
		}
	}
	return merges
}
