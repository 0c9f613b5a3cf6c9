package motion

import (
	"maps"
	"slices"

	"github.com/akmonengine/voxmotion/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// State is the motion record of one entity. Only the fields of the active Model
// are meaningful, the others are ignored.
type State struct {
	Model Model
	Flags map[string]any

	// Constant
	Position mgl64.Vec3

	// Linear
	Velocity mgl64.Vec3
	// StartTick is the last tick at which Position and Velocity were exact
	StartTick int64

	// Physical
	Mass        float64
	AirFriction float64
	Friction    float64
	Restitution float64
	// AABB holds the box extents, the body occupies Position ± AABB/2
	AABB     mgl64.Vec3
	Forces   map[string]mgl64.Vec3
	Contacts map[string]actor.Plane
}

// PositionAt evaluates the position at tick
func (s *State) PositionAt(tick int64) mgl64.Vec3 {
	return s.Model.Kinematics().Position(tick, s)
}

func (s *State) SetPosition(tick int64, p mgl64.Vec3) {
	s.Model.Kinematics().SetPosition(tick, s, p)
}

// VelocityAt evaluates the velocity at tick
func (s *State) VelocityAt(tick int64) mgl64.Vec3 {
	return s.Model.Kinematics().Velocity(tick, s)
}

func (s *State) SetVelocity(tick int64, v mgl64.Vec3) {
	s.Model.Kinematics().SetVelocity(tick, s, v)
}

// FastForward moves the reference instant to tick. It must run before forces,
// contacts or air friction change so elapsed history keeps its old parameters.
// It does nothing when the state is already referenced at tick or later.
func (s *State) FastForward(tick int64) {
	if s.StartTick < tick {
		s.Model.Kinematics().FastForward(tick, s)
	}
}

// Clone returns a deep copy of the state
func (s *State) Clone() *State {
	c := *s
	c.Flags = maps.Clone(s.Flags)
	c.Forces = maps.Clone(s.Forces)
	c.Contacts = maps.Clone(s.Contacts)
	return &c
}

// ForceNames returns the force names in summation order
func (s *State) ForceNames() []string {
	return slices.Sorted(maps.Keys(s.Forces))
}

// ContactIDs returns the contact ids in projection order
func (s *State) ContactIDs() []string {
	return slices.Sorted(maps.Keys(s.Contacts))
}

// NetForce sums the named forces in lexicographic order
func (s *State) NetForce() mgl64.Vec3 {
	var f mgl64.Vec3
	for _, name := range s.ForceNames() {
		f = f.Add(s.Forces[name])
	}
	return f
}
