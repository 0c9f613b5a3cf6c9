package voxmotion

import (
	"fmt"
	"math"
	"strings"

	"github.com/akmonengine/voxmotion/actor"
	"github.com/akmonengine/voxmotion/constraint"
	"github.com/akmonengine/voxmotion/motion"
	"github.com/go-gl/mathgl/mgl64"
)

// EntityContactPrefix marks the contacts between two entities
const EntityContactPrefix = "e"

// EntityContactID names the contact held against entity other, whose normal is
// sign along axis. Terrain contact ids never start with this prefix.
func EntityContactID(axis int, sign float64, other uint64) string {
	return fmt.Sprintf("%s%d:%d", EntityContactPrefix, int(sign)*(axis+1), other)
}

// BroadPhase returns the pairs of bodies whose swept boxes come within the
// contact threshold of each other between tick and tick+1.
func BroadPhase(spatialGrid *SpatialGrid, tick int64, bodies []*Entity) []Pair {
	boxes := make([]actor.AABB, len(bodies))
	for i, e := range bodies {
		e.mu.Lock()
		s := e.state
		boxes[i] = actor.SweptAABB(s.PositionAt(tick), s.PositionAt(tick+1), s.AABB).Expand(constraint.ContactThreshold)
		e.mu.Unlock()
	}

	spatialGrid.Clear()
	for i, box := range boxes {
		spatialGrid.Insert(i, box)
	}
	spatialGrid.SortCells()

	return spatialGrid.FindPairs(boxes)
}

// SeparatingPlane returns the plane between the boxes of a and b at tick, on the
// axis along which they are the farthest apart. The normal points from b toward
// a, and a body touches the other when (pa - pb)·Normal + D = 0.
func SeparatingPlane(tick int64, a, b *motion.State) (actor.Plane, int) {
	p := a.PositionAt(tick)
	q := b.PositionAt(tick)
	boxA := actor.NewAABB(p, a.AABB)
	boxB := actor.NewAABB(q, b.AABB)

	axis, best := 0, math.Inf(-1)
	for i := range 3 {
		gap := math.Max(boxB.Min[i]-boxA.Max[i], boxA.Min[i]-boxB.Max[i])
		if gap > best {
			axis, best = i, gap
		}
	}

	var n mgl64.Vec3
	n[axis] = 1
	if p[axis] < q[axis] {
		n[axis] = -1
	}

	return actor.Plane{
		Normal: n,
		D:      -0.5 * (a.AABB[axis] + b.AABB[axis]),
		Mu:     b.Friction,
	}, axis
}

// collideEntities resolves every candidate pair in id order and prunes the
// entity contacts that were not confirmed. It returns the number of pairs tested.
func (w *World) collideEntities(tick int64, bodies []*Entity) int {
	pairs := BroadPhase(w.SpatialGrid, tick, bodies)

	active := make(map[*Entity]map[string]bool, len(bodies))
	for _, pair := range pairs {
		// bodies are sorted by id, A < B
		w.resolvePair(tick, bodies[pair.A], bodies[pair.B], active)
	}

	w.pruneEntityContacts(tick, bodies, active)
	return len(pairs)
}

// resolvePair holds both entities, lowest id first
func (w *World) resolvePair(tick int64, a, b *Entity, active map[*Entity]map[string]bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b.mu.Lock()
	defer b.mu.Unlock()

	plane, axis := SeparatingPlane(tick, a.state, b.state)
	sign := plane.Normal[axis]
	idA := EntityContactID(axis, sign, b.id)
	idB := EntityContactID(axis, -sign, a.id)

	_, persistedA := a.state.Contacts[idA]
	_, persistedB := b.state.Contacts[idB]
	persisted := persistedA && persistedB
	if persisted {
		d := a.state.PositionAt(tick).Sub(b.state.PositionAt(tick)).Dot(plane.Normal) + plane.D
		if math.Abs(d) < constraint.ContactThreshold {
			markActive(active, a, idA)
			markActive(active, b, idB)
			return
		}
	}

	// An interpenetrating pair is pulled apart by moving the first body only:
	// move the one that is not held in place by another contact.
	var result constraint.Result
	if blocked(a.state, plane.Normal, idA) && !blocked(b.state, plane.Normal.Mul(-1), idB) {
		mirror := actor.Plane{Normal: plane.Normal.Mul(-1), D: plane.D, Mu: a.state.Friction}
		result = constraint.Resolve(tick, b.state, a.state, mirror)
	} else {
		result = constraint.Resolve(tick, a.state, b.state, plane)
	}

	switch result {
	case constraint.CollideStick:
		a.state.FastForward(tick)
		b.state.FastForward(tick)
		a.state.Contacts[idA] = plane
		b.state.Contacts[idB] = actor.Plane{Normal: plane.Normal.Mul(-1), D: plane.D, Mu: a.state.Friction}
		markActive(active, a, idA)
		markActive(active, b, idB)

		if !persisted {
			w.Events.emit(EntityStickEvent{EntityA: a, EntityB: b, Tick: tick})
			w.logger.Debug("entities stuck", "tick", tick, "a", a.id, "b", b.id, "axis", axis)
		}
	case constraint.CollideBounce:
		w.Events.emit(EntityBounceEvent{EntityA: a, EntityB: b, Tick: tick})
		w.logger.Debug("entities bounced", "tick", tick, "a", a.id, "b", b.id, "axis", axis)
	}
}

// blocked reports whether s holds a contact, other than skip, that opposes a
// push along n.
func blocked(s *motion.State, n mgl64.Vec3, skip string) bool {
	for id, c := range s.Contacts {
		if id != skip && c.Normal.Dot(n) < -GroundThreshold {
			return true
		}
	}
	return false
}

func (w *World) pruneEntityContacts(tick int64, bodies []*Entity, active map[*Entity]map[string]bool) {
	for _, e := range bodies {
		e.mu.Lock()
		var stale []string
		for _, id := range e.state.ContactIDs() {
			if strings.HasPrefix(id, EntityContactPrefix) && !active[e][id] {
				stale = append(stale, id)
			}
		}
		if len(stale) > 0 {
			e.state.FastForward(tick)
			for _, id := range stale {
				delete(e.state.Contacts, id)
				w.Events.emit(ContactRemovedEvent{Entity: e, ContactID: id, Tick: tick})
			}
		}
		e.mu.Unlock()
	}
}

func markActive(active map[*Entity]map[string]bool, e *Entity, id string) {
	if active[e] == nil {
		active[e] = make(map[string]bool)
	}
	active[e][id] = true
}
