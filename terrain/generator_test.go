package terrain

import (
	"math"
	"slices"
	"testing"

	"github.com/akmonengine/voxmotion/material"
	"github.com/akmonengine/voxmotion/motion"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	air   uint16 = 0
	stone uint16 = 1
	water uint16 = 2
)

// mockVoxels answers every query from a function of the voxel coordinates
type mockVoxels struct {
	at func(x, y, z int) uint16
}

func (m mockVoxels) ForEach(lo, hi [3]int, step int, fn func(x, y, z int, w *Window)) {
	for y := lo[1]; y < hi[1]; y += step {
		for z := lo[2]; z < hi[2]; z += step {
			for x := lo[0]; x < hi[0]; x += step {
				var w Window
				for dy := -1; dy <= 1; dy++ {
					for dz := -1; dz <= 1; dz++ {
						for dx := -1; dx <= 1; dx++ {
							w[WindowIndex(dx, dy, dz)] = m.at(x+dx*step, y+dy*step, z+dz*step)
						}
					}
				}
				fn(x, y, z, &w)
			}
		}
	}
}

func newGenerator(t *testing.T) *Generator {
	t.Helper()
	table, err := material.NewTable(
		material.Material{ID: air, Name: "air"},
		material.Material{ID: stone, Name: "stone", Solid: true, Friction: 0.5},
		material.Material{ID: water, Name: "water", Friction: 0.4},
	)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	return &Generator{Materials: table}
}

func newBody(t *testing.T, position, extents [3]float64, forces map[string][3]float64) *motion.State {
	t.Helper()
	s, err := motion.NewState(motion.Params{
		Model:    "physical",
		Position: &position,
		AABB:     &extents,
		Forces:   forces,
	})
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	return s
}

// floor is solid stone below y = 0
func floor(_, y, _ int) uint16 {
	if y < 0 && y >= -4 {
		return stone
	}
	return air
}

func TestWindowIndex(t *testing.T) {
	var w Window
	for i := range w {
		w[i] = uint16(i)
	}

	tests := []struct {
		name      string
		axis, dir int
		want      uint16
	}{
		{"-x", 0, -1, uint16(WindowIndex(-1, 0, 0))},
		{"+x", 0, 1, uint16(WindowIndex(1, 0, 0))},
		{"-y", 1, -1, 4},
		{"+y", 1, 1, 22},
		{"-z", 2, -1, 10},
		{"+z", 2, 1, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Neighbor(tt.axis, tt.dir); got != tt.want {
				t.Errorf("Neighbor(%d, %d) = %d, want %d", tt.axis, tt.dir, got, tt.want)
			}
		})
	}

	if w.Center() != 13 {
		t.Errorf("Center() = %d, want 13", w.Center())
	}
}

func TestContactID(t *testing.T) {
	tests := []struct {
		name   string
		axis   int
		sign   float64
		offset float64
		want   string
	}{
		{"floor", 1, 1, 0, "l2:0"},
		{"ceiling", 1, -1, 12, "l-2:12"},
		{"east wall", 0, -1, -3, "l-1:-3"},
		{"north wall", 2, 1, 7, "l3:7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContactID(tt.axis, tt.sign, tt.offset); got != tt.want {
				t.Errorf("ContactID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStep_FallingBodySticksToFloor(t *testing.T) {
	g := newGenerator(t)
	voxels := mockVoxels{at: floor}
	body := newBody(t, [3]float64{0.5, 2, 0.5}, [3]float64{0.5, 0.5, 0.5}, map[string][3]float64{
		"gravity": {0, -0.1, 0},
	})

	landed := int64(-1)
	for tick := int64(0); tick < 10; tick++ {
		report := g.Step(tick, body, voxels)
		if slices.Contains(report.Added, "l2:0") {
			landed = tick
			break
		}
	}

	// y(t) = 2 - 0.05t², the bottom reaches the floor between ticks 5 and 6
	if landed != 5 {
		t.Fatalf("landed at tick %d, want 5", landed)
	}

	contact, ok := body.Contacts["l2:0"]
	if !ok {
		t.Fatal("floor contact missing")
	}
	if contact.Normal != (mgl64.Vec3{0, 1, 0}) || contact.Mu != 0.5 {
		t.Errorf("contact = %+v, want upward normal with stone friction", contact)
	}

	p := body.PositionAt(landed)
	if math.Abs(p.Y()-0.25) > 1e-9 {
		t.Errorf("position at landing = %v, want y = 0.25", p)
	}
	if v := body.VelocityAt(landed); math.Abs(v.Y()) > 1e-4 {
		t.Errorf("velocity at landing = %v, want vertical velocity ~0", v)
	}
}

func TestStep_RestingContactIsStable(t *testing.T) {
	g := newGenerator(t)
	voxels := mockVoxels{at: floor}
	body := newBody(t, [3]float64{0.5, 2, 0.5}, [3]float64{0.5, 0.5, 0.5}, map[string][3]float64{
		"gravity": {0, -0.1, 0},
	})

	for tick := int64(0); tick <= 5; tick++ {
		g.Step(tick, body, voxels)
	}

	for tick := int64(6); tick < 40; tick++ {
		report := g.Step(tick, body, voxels)
		if len(report.Added) != 0 || len(report.Removed) != 0 {
			t.Fatalf("tick %d: added %v removed %v, want a stable contact set", tick, report.Added, report.Removed)
		}
		if !slices.Equal(report.Kept, []string{"l2:0"}) {
			t.Fatalf("tick %d: kept %v, want [l2:0]", tick, report.Kept)
		}
	}

	if p := body.PositionAt(40); math.Abs(p.Y()-0.25) > 1e-3 {
		t.Errorf("resting position = %v, want y ~0.25", p)
	}
	if v := body.VelocityAt(40); v.Len() > 1e-6 {
		t.Errorf("resting velocity = %v, want ~0", v)
	}
}

func TestStep_GapKeepsOneContactPerAxis(t *testing.T) {
	g := newGenerator(t)
	// one voxel wide shaft along y between walls at x = -1 and x = 1
	voxels := mockVoxels{at: func(x, _, _ int) uint16 {
		if x == -1 || x == 1 {
			return stone
		}
		return air
	}}
	body := newBody(t, [3]float64{0.5, 10.5, 0.5}, [3]float64{1, 0.5, 0.5}, map[string][3]float64{
		"push": {0.1, 0, 0},
	})

	report := g.Step(0, body, voxels)

	if !slices.Equal(report.Added, []string{"l-1:1"}) {
		t.Fatalf("added = %v, want only the wall pushed against", report.Added)
	}
	if _, ok := body.Contacts["l1:0"]; ok {
		t.Error("opposite wall must not be active on the same axis")
	}

	// the push is fully absorbed by the wall
	if v := body.VelocityAt(5); math.Abs(v.X()) > 1e-6 {
		t.Errorf("velocity = %v, want no motion along x", v)
	}
}

func TestStep_ContactRemovedWhenLeaving(t *testing.T) {
	g := newGenerator(t)
	voxels := mockVoxels{at: floor}
	body := newBody(t, [3]float64{0.5, 2, 0.5}, [3]float64{0.5, 0.5, 0.5}, map[string][3]float64{
		"gravity": {0, -0.1, 0},
	})
	for tick := int64(0); tick <= 5; tick++ {
		g.Step(tick, body, voxels)
	}

	// jump
	body.FastForward(10)
	body.SetVelocity(10, mgl64.Vec3{0, 1, 0})

	report := g.Step(11, body, voxels)
	if !slices.Equal(report.Removed, []string{"l2:0"}) {
		t.Fatalf("removed = %v, want [l2:0]", report.Removed)
	}
	if len(body.Contacts) != 0 {
		t.Errorf("contacts = %v, want none", body.Contacts)
	}
	if body.StartTick != 11 {
		t.Errorf("StartTick = %d, want the state fast-forwarded to 11", body.StartTick)
	}
}

func TestStep_BuriedVoxelsAreIgnored(t *testing.T) {
	g := newGenerator(t)
	voxels := mockVoxels{at: func(_, _, _ int) uint16 { return stone }}
	body := newBody(t, [3]float64{0.5, 0.5, 0.5}, [3]float64{0.5, 0.5, 0.5}, nil)

	report := g.Step(0, body, voxels)
	if len(report.Added) != 0 || report.Bounces != 0 || len(body.Contacts) != 0 {
		t.Errorf("report = %+v contacts = %v, want nothing inside solid rock", report, body.Contacts)
	}
}

func TestStep_AirFrictionFromMedium(t *testing.T) {
	g := newGenerator(t)
	voxels := mockVoxels{at: func(_, y, _ int) uint16 {
		if y < 5 {
			return water
		}
		return air
	}}
	body := newBody(t, [3]float64{0.5, 2.5, 0.5}, [3]float64{0.5, 0.5, 0.5}, nil)
	body.SetVelocity(0, mgl64.Vec3{1, 0, 0})

	report := g.Step(3, body, voxels)
	if report.AirFriction != 0.4 || body.AirFriction != 0.4 {
		t.Errorf("air friction = %v (report %v), want 0.4", body.AirFriction, report.AirFriction)
	}
	if body.StartTick != 3 {
		t.Errorf("StartTick = %d, want the state fast-forwarded before the friction change", body.StartTick)
	}
	// default air friction 1 applied over the first three ticks
	want := motion.IntegratePosition(mgl64.Vec3{0.5, 2.5, 0.5}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{}, 1, 3)
	if p := body.PositionAt(3); p.Sub(want).Len() > 1e-9 {
		t.Errorf("position at 3 = %v, want %v", p, want)
	}
}
