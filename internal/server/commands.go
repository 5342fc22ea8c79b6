package server

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/planets/internal/camera"
	"github.com/san-kum/planets/internal/universe"
)

func decode[T any](env Envelope) (T, error) {
	var v T
	if len(env.Data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return v, nil
}

func (s *Server) checkCapacity(n int) error {
	if limit := s.cfg.MaxBodies; limit > 0 && s.u.Len()+n > limit {
		return fmt.Errorf("%w: %d + %d > %d", ErrTooManyBodies, s.u.Len(), n, limit)
	}
	return nil
}

// apply runs one command against the universe. It is only called from the
// simulation loop.
func (s *Server) apply(env Envelope) (Result, error) {
	res := Result{Command: env.Type}
	var err error

	switch env.Type {
	case CmdAdd:
		res.IDs, err = s.add(env)
	case CmdRemove:
		var d IDData
		if d, err = decode[IDData](env); err == nil && !s.u.Remove(d.ID) {
			err = universe.ErrInvalidID
		}
	case CmdClear:
		res.Removed = s.u.Len()
		s.u.RemoveAll()
	case CmdRandom:
		res.IDs, err = s.random(env)
	case CmdOrbital:
		res.IDs, err = s.orbital(env)
	case CmdSelect:
		var d IDData
		if d, err = decode[IDData](env); err == nil && !s.u.SetSelected(d.ID) {
			err = universe.ErrInvalidID
		}
	case CmdSpeed:
		var d SpeedData
		if d, err = decode[SpeedData](env); err == nil {
			if math.IsNaN(d.Speed) || math.IsInf(d.Speed, 0) {
				err = fmt.Errorf("%w: speed %v", ErrBadPayload, d.Speed)
			} else {
				s.u.SetSpeed(d.Speed)
			}
		}
	case CmdCenter:
		s.u.CenterAll()
	case CmdEscapees:
		res.Removed = s.u.RemoveEscapees()
	case CmdFire:
		err = s.fire(env)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownCommand, env.Type)
	}

	res.Bodies = s.u.Len()
	s.collector.SetBodies(res.Bodies)
	return res, err
}

func (s *Server) add(env Envelope) ([]universe.ID, error) {
	d, err := decode[AddData](env)
	if err != nil {
		return nil, err
	}
	if err := s.checkCapacity(1); err != nil {
		return nil, err
	}
	b := universe.Body{Position: d.Position, Mass: d.Mass}
	b.SetUIVelocity(d.Velocity)
	if err := s.checkBody(b.Position, b.Velocity.Len(), b.Mass); err != nil {
		return nil, err
	}
	id, err := s.u.AddBody(b)
	if err != nil {
		return nil, err
	}
	return []universe.ID{id}, nil
}

func (s *Server) random(env Envelope) ([]universe.ID, error) {
	d, err := decode[CountData](env)
	if err != nil {
		return nil, err
	}
	p := s.randomParams
	if d.Count != 0 {
		p.Count = d.Count
	}
	if err := s.checkCapacity(p.Count); err != nil {
		return nil, err
	}
	return s.u.GenerateRandom(s.rng, p)
}

func (s *Server) orbital(env Envelope) ([]universe.ID, error) {
	d, err := decode[OrbitalData](env)
	if err != nil {
		return nil, err
	}
	if d.Target == universe.None {
		d.Target = s.u.Selected()
	}
	if err := s.checkCapacity(d.Count); err != nil {
		return nil, err
	}
	return s.u.GenerateRandomOrbital(s.rng, d.Count, d.Target)
}

// fire goes through the placement state machine, which stays in firing mode
// for the lifetime of the server.
func (s *Server) fire(env Envelope) error {
	d, err := decode[FireData](env)
	if err != nil {
		return err
	}
	if err := s.checkCapacity(1); err != nil {
		return err
	}

	p := s.placing
	p.FiringSpeed, p.FiringMass = s.firingSpeed, s.firingMass
	if d.Speed > 0 {
		p.FiringSpeed = d.Speed
	}
	if d.Mass > 0 {
		p.FiringMass = d.Mass
	}
	if err := s.checkBody(d.Origin, p.FiringSpeed*universe.VelocityFactor, p.FiringMass); err != nil {
		return err
	}
	if !p.HandlePrimaryAction(camera.Ray{Origin: d.Origin, Direction: d.Direction}) {
		return fmt.Errorf("%w: cannot fire along %v", ErrBadPayload, d.Direction)
	}
	return nil
}

// checkBody bounds client supplied bodies by the escape distance and
// universe.MaxMass. Larger values overflow the pairwise force.
func (s *Server) checkBody(pos mgl64.Vec3, speed, mass float64) error {
	limit := s.u.EscapeDistance()
	switch {
	case !(pos.LenSqr() <= limit*limit):
		return fmt.Errorf("%w: position %v beyond escape distance %g", ErrBadPayload, pos, limit)
	case !(speed <= limit):
		return fmt.Errorf("%w: speed %g", ErrBadPayload, speed)
	case mass > universe.MaxMass || math.IsNaN(mass):
		return &universe.RangeError{Field: "mass", Value: mass}
	}
	return nil
}
