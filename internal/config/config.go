// Package config holds the YAML configuration of the simulator, the
// environment overlay and the named starting presets.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/planets/internal/placing"
	"github.com/san-kum/planets/internal/universe"
)

var ErrInvalid = errors.New("config: invalid value")

const (
	DefaultViewerFPS = 30
	DefaultServerFPS = 20
	DefaultAddr      = ":8080"
	DefaultMaxBodies = 2000
)

type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Random     RandomConfig     `yaml:"random"`
	Placing    PlacingConfig    `yaml:"placing"`
	Viewer     ViewerConfig     `yaml:"viewer"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type SimulationConfig struct {
	Speed              float64 `yaml:"speed"`
	StepsPerFrame      int     `yaml:"steps_per_frame"`
	PathLength         int     `yaml:"path_length"`
	PathRecordDistance float64 `yaml:"path_record_distance"`
	EscapeDistance     float64 `yaml:"escape_distance"`
	Workers            int     `yaml:"workers"`
	Seed               uint64  `yaml:"seed"`
}

type RandomConfig struct {
	Count          int     `yaml:"count"`
	PositionRadius float64 `yaml:"position_radius"`
	MaxSpeed       float64 `yaml:"max_speed"`
	MinMass        float64 `yaml:"min_mass"`
	MaxMass        float64 `yaml:"max_mass"`
}

type PlacingConfig struct {
	FiringSpeed float64 `yaml:"firing_speed"`
	FiringMass  float64 `yaml:"firing_mass"`
}

type ViewerConfig struct {
	FPS   int    `yaml:"fps"`
	Theme string `yaml:"theme"`
}

type ServerConfig struct {
	Addr              string   `yaml:"addr"`
	FPS               int      `yaml:"fps"`
	AllowedOrigins    []string `yaml:"allowed_origins"`
	CommandsPerSecond float64  `yaml:"commands_per_second"`
	CommandBurst      int      `yaml:"command_burst"`
	MaxBodies         int      `yaml:"max_bodies"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

func DefaultConfig() *Config {
	opts := universe.DefaultOptions()
	rp := universe.DefaultRandomParams()
	return &Config{
		Simulation: SimulationConfig{
			Speed:              opts.Speed,
			StepsPerFrame:      opts.StepsPerFrame,
			PathLength:         opts.PathLength,
			PathRecordDistance: opts.PathRecordDistance,
			EscapeDistance:     opts.EscapeDistance,
			Workers:            1,
		},
		Random: RandomConfig{
			Count:          rp.Count,
			PositionRadius: rp.PositionRadius,
			MaxSpeed:       rp.MaxSpeed,
			MinMass:        rp.MinMass,
			MaxMass:        rp.MaxMass,
		},
		Placing: PlacingConfig{
			FiringSpeed: placing.DefaultFiringSpeed,
			FiringMass:  placing.DefaultFiringMass,
		},
		Viewer: ViewerConfig{
			FPS:   DefaultViewerFPS,
			Theme: "default",
		},
		Server: ServerConfig{
			Addr:              DefaultAddr,
			FPS:               DefaultServerFPS,
			AllowedOrigins:    []string{"*"},
			CommandsPerSecond: 10,
			CommandBurst:      20,
			MaxBodies:         DefaultMaxBodies,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML file on top of DefaultConfig and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func invalid(field string, value any) error {
	return fmt.Errorf("%w: %s = %v", ErrInvalid, field, value)
}

func (c *Config) Validate() error {
	s := c.Simulation
	switch {
	case s.StepsPerFrame < 1:
		return invalid("simulation.steps_per_frame", s.StepsPerFrame)
	case s.PathLength < 0:
		return invalid("simulation.path_length", s.PathLength)
	case s.PathRecordDistance < 0:
		return invalid("simulation.path_record_distance", s.PathRecordDistance)
	case !(s.EscapeDistance > 0):
		return invalid("simulation.escape_distance", s.EscapeDistance)
	case s.Workers < 1:
		return invalid("simulation.workers", s.Workers)
	}
	if _, err := c.RandomParams(); err != nil {
		return err
	}
	switch {
	case !(c.Placing.FiringMass > 0):
		return invalid("placing.firing_mass", c.Placing.FiringMass)
	case c.Placing.FiringSpeed < 0:
		return invalid("placing.firing_speed", c.Placing.FiringSpeed)
	case c.Viewer.FPS < 1:
		return invalid("viewer.fps", c.Viewer.FPS)
	case c.Server.FPS < 1:
		return invalid("server.fps", c.Server.FPS)
	case c.Server.CommandsPerSecond <= 0:
		return invalid("server.commands_per_second", c.Server.CommandsPerSecond)
	case c.Server.CommandBurst < 1:
		return invalid("server.command_burst", c.Server.CommandBurst)
	case c.Server.MaxBodies < 1:
		return invalid("server.max_bodies", c.Server.MaxBodies)
	}
	return nil
}

// UniverseOptions converts the simulation section into universe options.
func (c *Config) UniverseOptions() universe.Options {
	s := c.Simulation
	opts := universe.DefaultOptions()
	opts.Speed = s.Speed
	opts.StepsPerFrame = s.StepsPerFrame
	opts.PathLength = s.PathLength
	opts.PathRecordDistance = s.PathRecordDistance
	opts.EscapeDistance = s.EscapeDistance
	opts.Workers = s.Workers
	return opts
}

func (c *Config) RandomParams() (universe.RandomParams, error) {
	r := c.Random
	p := universe.RandomParams{
		Count:          r.Count,
		PositionRadius: r.PositionRadius,
		MaxSpeed:       r.MaxSpeed,
		MinMass:        r.MinMass,
		MaxMass:        r.MaxMass,
	}
	switch {
	case p.Count < 0:
		return p, invalid("random.count", p.Count)
	case p.PositionRadius < 0:
		return p, invalid("random.position_radius", p.PositionRadius)
	case p.MaxSpeed < 0:
		return p, invalid("random.max_speed", p.MaxSpeed)
	case !(p.MinMass > 0) || p.MaxMass < p.MinMass:
		return p, invalid("random.min_mass/max_mass", fmt.Sprintf("%g/%g", p.MinMass, p.MaxMass))
	}
	return p, nil
}

// ConfigurePlacing copies the firing settings onto a placement interface.
func (c *Config) ConfigurePlacing(p *placing.Interface) {
	p.FiringSpeed = c.Placing.FiringSpeed
	p.FiringMass = c.Placing.FiringMass
}
