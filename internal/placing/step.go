package placing

// Step is the state of the placement state machine.
type Step int

const (
	NotPlacing Step = iota
	FreePositionXY
	FreePositionZ
	FreeVelocity
	Firing
	OrbitalPlanet
	OrbitalPlane
)

var stepNames = [...]string{
	NotPlacing:     "not placing",
	FreePositionXY: "position xy",
	FreePositionZ:  "position z",
	FreeVelocity:   "velocity",
	Firing:         "firing",
	OrbitalPlanet:  "orbital radius",
	OrbitalPlane:   "orbital plane",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "unknown"
	}
	return stepNames[s]
}

// Staging reports whether s is part of a multi-gesture creation sequence.
func (s Step) Staging() bool {
	return s != NotPlacing && s != Firing
}
