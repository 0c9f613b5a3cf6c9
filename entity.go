package voxmotion

import (
	"fmt"
	"sync"

	"github.com/akmonengine/voxmotion/motion"
	"github.com/go-gl/mathgl/mgl64"
)

// GroundThreshold is the smallest vertical normal component of a supporting contact
const GroundThreshold = 0.5

// Entity is a body registered in a World. Its accessors read and write the motion
// state at the current world tick and are safe for concurrent use.
type Entity struct {
	mu    sync.Mutex
	id    uint64
	state *motion.State
	world *World
}

func (e *Entity) ID() uint64 {
	return e.id
}

func (e *Entity) Model() motion.Model {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Model
}

// Position returns the position at the current tick
func (e *Entity) Position() mgl64.Vec3 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.PositionAt(e.world.Tick())
}

// SetPosition teleports the entity, keeping its current velocity
func (e *Entity) SetPosition(p mgl64.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.SetPosition(e.world.Tick(), p)
}

// Velocity returns the velocity at the current tick
func (e *Entity) Velocity() mgl64.Vec3 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.VelocityAt(e.world.Tick())
}

func (e *Entity) SetVelocity(v mgl64.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.SetVelocity(e.world.Tick(), v)
}

// Params returns the persisted record of the entity
func (e *Entity) Params() motion.Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Params()
}

// SetParams replaces the motion record. A missing start tick means now. The
// entity is unchanged on error.
func (e *Entity) SetParams(p motion.Params) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p.StartTick == nil {
		tick := e.world.Tick()
		p.StartTick = &tick
	}
	if err := e.state.SetParams(p); err != nil {
		return fmt.Errorf("voxmotion: entity %d: %w", e.id, err)
	}
	return nil
}

// Force returns the named force
func (e *Entity) Force(name string) (mgl64.Vec3, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.state.Forces[name]
	return f, ok
}

// SetForce adds or replaces a named force from the current tick on
func (e *Entity) SetForce(name string, f mgl64.Vec3) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Model != motion.ModelPhysical {
		return fmt.Errorf("voxmotion: entity %d: %w", e.id, ErrNotPhysical)
	}

	e.state.FastForward(e.world.Tick())
	e.state.Forces[name] = f
	return nil
}

func (e *Entity) RemoveForce(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.state.Forces[name]; !ok {
		return
	}

	e.state.FastForward(e.world.Tick())
	delete(e.state.Forces, name)
}

// OnGround reports whether a contact supports the entity from below
func (e *Entity) OnGround() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.state.Contacts {
		if c.Normal.Y() > GroundThreshold {
			return true
		}
	}
	return false
}

// ApplyImpulse adds dv to the velocity the entity would have at the next tick
func (e *Entity) ApplyImpulse(dv mgl64.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tick := e.world.Tick()
	e.state.SetVelocity(tick, e.state.VelocityAt(tick+1).Add(dv))
}

// Contacts returns the active contact ids in projection order
func (e *Entity) Contacts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.ContactIDs()
}

// Snapshot returns a copy of the motion state
func (e *Entity) Snapshot() *motion.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}
