package motion

import (
	"fmt"
	"maps"

	"github.com/akmonengine/voxmotion/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Params is the persisted motion record. Absent fields are nil and get filled by
// the model defaults; keys foreign to the model are ignored.
type Params struct {
	Model       string                `msgpack:"model" yaml:"model"`
	Flags       map[string]any        `msgpack:"flags,omitempty" yaml:"flags,omitempty"`
	AABB        *[3]float64           `msgpack:"aabb,omitempty" yaml:"aabb,omitempty"`
	Position    *[3]float64           `msgpack:"position,omitempty" yaml:"position,omitempty"`
	Velocity    *[3]float64           `msgpack:"velocity,omitempty" yaml:"velocity,omitempty"`
	StartTick   *int64                `msgpack:"start_tick,omitempty" yaml:"start_tick,omitempty"`
	Friction    *float64              `msgpack:"friction,omitempty" yaml:"friction,omitempty"`
	AirFriction *float64              `msgpack:"air_friction,omitempty" yaml:"air_friction,omitempty"`
	Forces      map[string][3]float64 `msgpack:"forces,omitempty" yaml:"forces,omitempty"`
	Contacts    map[string][5]float64 `msgpack:"contacts,omitempty" yaml:"contacts,omitempty"`
	Mass        *float64              `msgpack:"mass,omitempty" yaml:"mass,omitempty"`
	Restitution *float64              `msgpack:"restitution,omitempty" yaml:"restitution,omitempty"`
}

// NewState builds a state from a record, filling the defaults of its model.
// An empty model selects ModelLinear.
func NewState(p Params) (*State, error) {
	m, err := ParseModel(p.Model)
	if err != nil {
		return nil, err
	}

	kin := m.Kinematics()
	p.Model = m.String()
	kin.ApplyDefaults(&p)

	s := &State{Model: m}
	for _, field := range kin.Fields() {
		switch field {
		case "flags":
			s.Flags = maps.Clone(p.Flags)
		case "aabb":
			s.AABB = mgl64.Vec3(*p.AABB)
		case "position":
			s.Position = mgl64.Vec3(*p.Position)
		case "velocity":
			s.Velocity = mgl64.Vec3(*p.Velocity)
		case "start_tick":
			s.StartTick = *p.StartTick
		case "friction":
			s.Friction = *p.Friction
		case "air_friction":
			s.AirFriction = *p.AirFriction
		case "forces":
			s.Forces = make(map[string]mgl64.Vec3, len(p.Forces))
			for name, f := range p.Forces {
				s.Forces[name] = mgl64.Vec3(f)
			}
		case "contacts":
			s.Contacts = make(map[string]actor.Plane, len(p.Contacts))
			for id, c := range p.Contacts {
				s.Contacts[id] = actor.PlaneFromArray(c)
			}
		case "mass":
			s.Mass = *p.Mass
		case "restitution":
			s.Restitution = *p.Restitution
		}
	}

	if m == ModelPhysical && !(s.Mass > 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidMass, s.Mass)
	}

	return s, nil
}

// Params returns the record of the state, restricted to the fields of its model
func (s *State) Params() Params {
	p := Params{Model: s.Model.String()}
	for _, field := range s.Model.Kinematics().Fields() {
		switch field {
		case "flags":
			p.Flags = maps.Clone(s.Flags)
		case "aabb":
			p.AABB = ptr([3]float64(s.AABB))
		case "position":
			p.Position = ptr([3]float64(s.Position))
		case "velocity":
			p.Velocity = ptr([3]float64(s.Velocity))
		case "start_tick":
			p.StartTick = ptr(s.StartTick)
		case "friction":
			p.Friction = ptr(s.Friction)
		case "air_friction":
			p.AirFriction = ptr(s.AirFriction)
		case "forces":
			p.Forces = make(map[string][3]float64, len(s.Forces))
			for name, f := range s.Forces {
				p.Forces[name] = [3]float64(f)
			}
		case "contacts":
			p.Contacts = make(map[string][5]float64, len(s.Contacts))
			for id, c := range s.Contacts {
				p.Contacts[id] = c.Array()
			}
		case "mass":
			p.Mass = ptr(s.Mass)
		case "restitution":
			p.Restitution = ptr(s.Restitution)
		}
	}
	return p
}

// SetParams replaces the state with the one described by the record.
// The state is left untouched when the record is invalid.
func (s *State) SetParams(p Params) error {
	next, err := NewState(p)
	if err != nil {
		return err
	}
	*s = *next
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
