package universe

import (
	"iter"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// Options configures a Universe.
type Options struct {
	G                  float64
	TimeScale          float64
	Speed              float64
	StepsPerFrame      int
	PathLength         int
	PathRecordDistance float64
	EscapeDistance     float64
	Workers            int
}

func DefaultOptions() Options {
	return Options{
		G:                  G,
		TimeScale:          TimeScale,
		Speed:              1.0,
		StepsPerFrame:      20,
		PathLength:         200,
		PathRecordDistance: 0.25,
		EscapeDistance:     1.0e5,
		Workers:            1,
	}
}

// Universe owns the set of bodies, the selection and the simulation speed.
type Universe struct {
	bodies map[ID]*Body
	nextID ID

	selected ID

	g                    float64
	timeScale            float64
	speed                float64
	stepsPerFrame        int
	pathLength           int
	pathRecordDistanceSq float64
	escapeDistance       float64
	workers              int

	observers []Observer

	// scratch buffers reused between substeps
	ids    []ID
	deltas []mgl64.Vec3
}

// New creates an empty universe. Out of range options fall back to the
// corresponding DefaultOptions value.
func New(opts Options) *Universe {
	def := DefaultOptions()
	if opts.G <= 0 {
		opts.G = def.G
	}
	if opts.TimeScale <= 0 {
		opts.TimeScale = def.TimeScale
	}
	if opts.StepsPerFrame < 1 {
		opts.StepsPerFrame = def.StepsPerFrame
	}
	if opts.PathLength < 0 {
		opts.PathLength = def.PathLength
	}
	if opts.PathRecordDistance < 0 {
		opts.PathRecordDistance = def.PathRecordDistance
	}
	if opts.EscapeDistance <= 0 {
		opts.EscapeDistance = def.EscapeDistance
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Universe{
		bodies:               make(map[ID]*Body),
		nextID:               1,
		g:                    opts.G,
		timeScale:            opts.TimeScale,
		speed:                opts.Speed,
		stepsPerFrame:        opts.StepsPerFrame,
		pathLength:           opts.PathLength,
		pathRecordDistanceSq: opts.PathRecordDistance * opts.PathRecordDistance,
		escapeDistance:       opts.EscapeDistance,
		workers:              opts.Workers,
	}
}

func (u *Universe) AddObserver(o Observer) { u.observers = append(u.observers, o) }

// Add creates a body and returns its freshly assigned id.
func (u *Universe) Add(position, velocity mgl64.Vec3, mass float64) (ID, error) {
	return u.AddBody(Body{Position: position, Velocity: velocity, Mass: mass})
}

// AddBody stores a copy of b under a new id. The trail is not copied.
func (u *Universe) AddBody(b Body) (ID, error) {
	if !(b.Mass > 0) || math.IsInf(b.Mass, 0) {
		return None, outOfRange("mass", b.Mass)
	}
	id := u.nextID
	u.nextID++
	u.bodies[id] = &Body{Position: b.Position, Velocity: b.Velocity, Mass: b.Mass}
	return id, nil
}

// Remove deletes a body. It reports false for ids that are not alive.
func (u *Universe) Remove(id ID) bool {
	if _, ok := u.bodies[id]; !ok {
		return false
	}
	delete(u.bodies, id)
	if u.selected == id {
		u.selected = None
	}
	return true
}

// RemoveAll deletes every body and clears the selection. The id counter
// is not reset.
func (u *Universe) RemoveAll() {
	clear(u.bodies)
	u.selected = None
}

// RemoveEscapees deletes bodies farther than the escape distance from the
// origin or with non-finite state, returning how many were removed.
func (u *Universe) RemoveEscapees() int {
	limitSq := u.escapeDistance * u.escapeDistance
	removed := 0
	for id, b := range u.bodies {
		if !b.IsFinite() || b.Position.LenSqr() > limitSq {
			u.Remove(id)
			removed++
		}
	}
	return removed
}

// CenterAll shifts every body so the mass-weighted mean position and
// velocity become zero. Trails are cleared.
func (u *Universe) CenterAll() {
	if len(u.bodies) == 0 {
		return
	}
	var pos, vel mgl64.Vec3
	total := 0.0
	for _, b := range u.bodies {
		pos = pos.Add(b.Position.Mul(b.Mass))
		vel = vel.Add(b.Velocity.Mul(b.Mass))
		total += b.Mass
	}
	pos = pos.Mul(1 / total)
	vel = vel.Mul(1 / total)
	for _, b := range u.bodies {
		b.Position = b.Position.Sub(pos)
		b.Velocity = b.Velocity.Sub(vel)
		b.Path = b.Path[:0]
	}
}

// SetVelocity overwrites the velocity of a body in simulation units.
func (u *Universe) SetVelocity(id ID, v mgl64.Vec3) bool {
	b, ok := u.bodies[id]
	if !ok {
		return false
	}
	b.Velocity = v
	return true
}

// Get looks up a body. The returned pointer stays valid until the body is
// removed or absorbed by a merge.
func (u *Universe) Get(id ID) (*Body, bool) {
	b, ok := u.bodies[id]
	return b, ok
}

func (u *Universe) IsValid(id ID) bool {
	_, ok := u.bodies[id]
	return ok
}

func (u *Universe) Len() int      { return len(u.bodies) }
func (u *Universe) IsEmpty() bool { return len(u.bodies) == 0 }

// IDs returns the live ids in ascending order.
func (u *Universe) IDs() []ID {
	ids := make([]ID, 0, len(u.bodies))
	for id := range u.bodies {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// All iterates bodies in ascending id order. The universe must not be
// mutated while iterating.
func (u *Universe) All() iter.Seq2[ID, *Body] {
	return func(yield func(ID, *Body) bool) {
		for _, id := range u.IDs() {
			if !yield(id, u.bodies[id]) {
				return
			}
		}
	}
}

func (u *Universe) TotalMass() float64 {
	total := 0.0
	for _, b := range u.bodies {
		total += b.Mass
	}
	return total
}

// Selected returns the selected id, or None.
func (u *Universe) Selected() ID { return u.selected }

// SetSelected selects a live body. Selecting None clears the selection;
// selecting a dead id is refused.
func (u *Universe) SetSelected(id ID) bool {
	if id == None {
		u.selected = None
		return true
	}
	if !u.IsValid(id) {
		return false
	}
	u.selected = id
	return true
}

func (u *Universe) ClearSelection() { u.selected = None }

func (u *Universe) IsSelectedValid() bool { return u.IsValid(u.selected) }

func (u *Universe) SelectedBody() (*Body, bool) { return u.Get(u.selected) }

func (u *Universe) Speed() float64 { return u.speed }

// SetSpeed sets the simulation speed. Zero or negative pauses.
func (u *Universe) SetSpeed(s float64) { u.speed = s }

func (u *Universe) StepsPerFrame() int { return u.stepsPerFrame }

func (u *Universe) SetStepsPerFrame(n int) error {
	if n < 1 {
		return outOfRange("steps per frame", float64(n))
	}
	u.stepsPerFrame = n
	return nil
}

func (u *Universe) PathLength() int { return u.pathLength }

func (u *Universe) SetPathLength(n int) error {
	if n < 0 {
		return outOfRange("path length", float64(n))
	}
	u.pathLength = n
	return nil
}

// PathRecordDistance returns the minimum distance between trail points.
func (u *Universe) PathRecordDistance() float64 { return math.Sqrt(u.pathRecordDistanceSq) }

func (u *Universe) SetPathRecordDistance(d float64) error {
	if d < 0 {
		return outOfRange("path record distance", d)
	}
	u.pathRecordDistanceSq = d * d
	return nil
}

func (u *Universe) EscapeDistance() float64 { return u.escapeDistance }

func (u *Universe) SetEscapeDistance(d float64) error {
	if !(d > 0) {
		return outOfRange("escape distance", d)
	}
	u.escapeDistance = d
	return nil
}

func (u *Universe) GravityConstant() float64 { return u.g }
