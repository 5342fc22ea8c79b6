package config

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/planets/internal/universe"
)

// Preset describes a starting universe: an optional central body, a random
// cloud and a number of bodies on orbits around the center.
type Preset struct {
	Description string
	Random      RandomConfig
	// CentralMass adds a resting body at the origin when positive.
	CentralMass float64
	// Companion adds a second central body on a circular orbit.
	Companion float64
	Orbiting  int
}

var Presets = map[string]*Preset{
	"cluster": {
		Description: "a hundred light bodies in a slowly drifting ball",
		Random:      RandomConfig{Count: 100, PositionRadius: 1000, MaxSpeed: 1, MinMass: 1, MaxMass: 100},
	},
	"disk": {
		Description: "a heavy star with fifty bodies on circular orbits",
		CentralMass: 1.0e8,
		Orbiting:    50,
	},
	"binary": {
		Description: "two stars orbiting each other with a few planets",
		CentralMass: 5.0e7,
		Companion:   1.0e7,
		Orbiting:    8,
	},
	"sparse": {
		Description: "a few massive bodies spread far apart",
		Random:      RandomConfig{Count: 12, PositionRadius: 5000, MaxSpeed: 5, MinMass: 1.0e4, MaxMass: 1.0e6},
	},
}

func GetPreset(name string) *Preset {
	return Presets[name]
}

// ListPresets returns the preset names in alphabetical order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Apply adds the preset's bodies to u.
func (p *Preset) Apply(u *universe.Universe, rng *rand.Rand) error {
	if p.Random.Count > 0 {
		params := universe.RandomParams{
			Count:          p.Random.Count,
			PositionRadius: p.Random.PositionRadius,
			MaxSpeed:       p.Random.MaxSpeed,
			MinMass:        p.Random.MinMass,
			MaxMass:        p.Random.MaxMass,
		}
		if _, err := u.GenerateRandom(rng, params); err != nil {
			return fmt.Errorf("config: preset random bodies: %w", err)
		}
	}

	if !(p.CentralMass > 0) {
		return nil
	}
	center, err := u.Add(mgl64.Vec3{}, mgl64.Vec3{}, p.CentralMass)
	if err != nil {
		return err
	}

	if p.Companion > 0 {
		c, _ := u.Get(center)
		r := c.Radius() * 20
		s := universe.CircularOrbitSpeed(u.GravityConstant(), p.CentralMass, p.Companion, r)
		if _, err := u.Add(mgl64.Vec3{r, 0, 0}, mgl64.Vec3{0, s, 0}, p.Companion); err != nil {
			return err
		}
	}

	if p.Orbiting > 0 {
		if _, err := u.GenerateRandomOrbital(rng, p.Orbiting, center); err != nil {
			return fmt.Errorf("config: preset orbits: %w", err)
		}
	}
	u.SetSelected(center)
	return nil
}
