package terrain

import (
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/akmonengine/voxmotion/actor"
	"github.com/akmonengine/voxmotion/constraint"
	"github.com/akmonengine/voxmotion/material"
	"github.com/akmonengine/voxmotion/motion"
	"github.com/go-gl/mathgl/mgl64"
)

// ContactPrefix marks the contacts owned by the terrain generator
const ContactPrefix = "l"

// ContactID names the voxel face with the given normal axis and sign lying at offset.
// The same face always yields the same id.
func ContactID(axis int, sign float64, offset float64) string {
	return fmt.Sprintf("%s%d:%s", ContactPrefix, int(sign)*(axis+1), strconv.FormatFloat(offset, 'f', -1, 64))
}

// Generator maintains the terrain contacts of physical bodies
type Generator struct {
	Materials *material.Table
	Logger    *slog.Logger
}

// Report summarizes one generator step
type Report struct {
	Added       []string
	Kept        []string
	Removed     []string
	Bounces     int
	AirFriction float64
}

type candidate struct {
	distance    float64
	plane       actor.Plane
	id          string
	restitution float64
	axis        int
}

// Step collides the body against the voxels it can reach between tick and tick+1,
// refreshes its contact set and its air friction. s must be a physical state
// exclusively owned by the caller for the duration of the call.
func (g *Generator) Step(tick int64, s *motion.State, voxels Voxels) Report {
	p := s.PositionAt(tick)
	swept := actor.SweptAABB(p, s.PositionAt(tick+1), s.AABB)

	candidates, air := g.candidates(p, swept, s.AABB, voxels)
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		if c := cmp.Compare(a.distance, b.distance); c != 0 {
			return c
		}
		return strings.Compare(a.id, b.id)
	})

	report := Report{AirFriction: air}
	active := make(map[string]bool)
	var axes [3]float64

	for i, c := range candidates {
		sign := c.plane.Normal[c.axis]
		if (i > 0 && c.id == candidates[i-1].id) || sign*axes[c.axis] < 0 {
			continue
		}

		_, persisted := s.Contacts[c.id]
		if persisted && math.Abs(c.plane.Distance(s.PositionAt(tick))) < constraint.ContactThreshold {
			active[c.id] = true
			axes[c.axis] = sign
			report.Kept = append(report.Kept, c.id)
			continue
		}

		switch constraint.Resolve(tick, s, constraint.Wall(c.restitution, c.plane.Mu), c.plane) {
		case constraint.CollideStick:
			active[c.id] = true
			axes[c.axis] = sign
			if !persisted {
				report.Added = append(report.Added, c.id)
				g.logger().Debug("contact added", "tick", tick, "id", c.id, "distance", c.distance)
			}
			s.FastForward(tick)
			s.Contacts[c.id] = c.plane
		case constraint.CollideBounce:
			axes[c.axis] = sign
			report.Bounces++
			g.logger().Debug("bounced", "tick", tick, "id", c.id)
		}
	}

	if s.AirFriction != air {
		s.FastForward(tick)
		s.AirFriction = air
	}

	for _, id := range s.ContactIDs() {
		if strings.HasPrefix(id, ContactPrefix) && !active[id] {
			report.Removed = append(report.Removed, id)
		}
	}
	if len(report.Removed) > 0 {
		s.FastForward(tick)
		for _, id := range report.Removed {
			delete(s.Contacts, id)
		}
		g.logger().Debug("contacts removed", "tick", tick, "ids", report.Removed)
	}

	return report
}

// candidates scans the voxels around the swept box and returns one separating
// plane per solid voxel close enough to be touched, plus the largest friction of
// the empty voxels crossed.
func (g *Generator) candidates(p mgl64.Vec3, swept actor.AABB, extents mgl64.Vec3, voxels Voxels) ([]candidate, float64) {
	lo, hi := swept.Expand(1).VoxelBounds()

	var list []candidate
	air := 0.0
	voxels.ForEach(lo, hi, 1, func(x, y, z int, w *Window) {
		m := g.Materials.Get(w.Center())
		if !m.Solid {
			air = math.Max(air, m.Friction)
			return
		}

		box := actor.AABB{
			Min: mgl64.Vec3{float64(x), float64(y), float64(z)},
			Max: mgl64.Vec3{float64(x + 1), float64(y + 1), float64(z + 1)},
		}
		if box.Separation(swept) > constraint.ContactThreshold {
			return
		}

		// The exposed face the body is the least far behind
		axis, sign, best := -1, 0.0, math.Inf(-1)
		for i := range 3 {
			if !g.Materials.Solid(w.Neighbor(i, -1)) {
				if d := box.Min[i] - p[i]; d > best {
					axis, sign, best = i, -1, d
				}
			}
			if !g.Materials.Solid(w.Neighbor(i, 1)) {
				if d := p[i] - box.Max[i]; d > best {
					axis, sign, best = i, 1, d
				}
			}
		}
		if axis < 0 {
			// buried
			return
		}

		offset := box.Max[axis]
		if sign < 0 {
			offset = box.Min[axis]
		}
		plane := actor.AxisPlane(axis, sign, offset, m.Friction)
		plane.D -= 0.5 * extents[axis]

		list = append(list, candidate{
			distance:    plane.Distance(p),
			plane:       plane,
			id:          ContactID(axis, sign, offset),
			restitution: m.Restitution,
			axis:        axis,
		})
	})

	return list, air
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}
