package constraint

import (
	"math"
	"testing"

	"github.com/akmonengine/voxmotion/actor"
	"github.com/akmonengine/voxmotion/motion"
	"github.com/go-gl/mathgl/mgl64"
)

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func vec3AlmostEqual(a, b mgl64.Vec3, tolerance float64) bool {
	return almostEqual(a.X(), b.X(), tolerance) &&
		almostEqual(a.Y(), b.Y(), tolerance) &&
		almostEqual(a.Z(), b.Z(), tolerance)
}

func ptr[T any](v T) *T {
	return &v
}

// createBody creates a drag-free physical body without forces
func createBody(t *testing.T, position, velocity mgl64.Vec3, mass, restitution float64) *motion.State {
	t.Helper()
	s, err := motion.NewState(motion.Params{
		Model:       "physical",
		Position:    ptr([3]float64(position)),
		Velocity:    ptr([3]float64(velocity)),
		Mass:        ptr(mass),
		Restitution: ptr(restitution),
		AirFriction: ptr(0.0),
	})
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	return s
}

var floor = actor.Plane{Normal: mgl64.Vec3{0, 1, 0}, D: 0, Mu: 0.5}

func TestResolve_NoCollisionWhenSeparated(t *testing.T) {
	body := createBody(t, mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, -1, 0}, 1, 1)
	before := *body.Clone()

	if got := Resolve(0, body, Wall(1, 0), floor); got != CollideNone {
		t.Errorf("Resolve() = %v, want none", got)
	}
	if body.Position != before.Position || body.Velocity != before.Velocity {
		t.Error("a separated body must not be modified")
	}
}

func TestResolve_MomentumConservation(t *testing.T) {
	tests := []struct {
		name   string
		massA  float64
		massB  float64
		vA, vB mgl64.Vec3
		crA    float64
		crB    float64
	}{
		{"heavy on light", 2, 1, mgl64.Vec3{0, -0.5, 0}, mgl64.Vec3{0, 0.5, 0}, 0.5, 0.8},
		{"equal masses", 1, 1, mgl64.Vec3{0.3, -0.6, 0}, mgl64.Vec3{0, 0.2, 0.1}, 0.9, 0.9},
		{"light on heavy", 0.5, 4, mgl64.Vec3{0, -0.8, 0}, mgl64.Vec3{0, 0, 0}, 0.3, 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := createBody(t, mgl64.Vec3{0, 1.005, 0}, tt.vA, tt.massA, tt.crA)
			b := createBody(t, mgl64.Vec3{0, 0, 0}, tt.vB, tt.massB, tt.crB)
			// a sits on top of b when a.y - b.y = 1
			plane := actor.Plane{Normal: mgl64.Vec3{0, 1, 0}, D: -1}

			before := tt.vA.Mul(tt.massA).Add(tt.vB.Mul(tt.massB))
			result := Resolve(0, a, b, plane)
			if result != CollideBounce {
				t.Fatalf("Resolve() = %v, want bounce", result)
			}

			after := a.VelocityAt(0).Mul(tt.massA).Add(b.VelocityAt(0).Mul(tt.massB))
			if !vec3AlmostEqual(before, after, 1e-9) {
				t.Errorf("momentum %v -> %v", before, after)
			}

			// Restitution reverses the approach speed scaled by the lesser coefficient
			cr := math.Min(tt.crA, tt.crB)
			approach := tt.vA.Sub(tt.vB).Y()
			separation := a.VelocityAt(0).Sub(b.VelocityAt(0)).Y()
			if !almostEqual(separation, -cr*approach, 1e-9) {
				t.Errorf("separation speed = %v, want %v", separation, -cr*approach)
			}
		})
	}
}

func TestResolve_HeavyBodyKeepsItsVelocity(t *testing.T) {
	a := createBody(t, mgl64.Vec3{0, 0.5, 0}, mgl64.Vec3{0, -1, 0}, 1, 1)
	b := createBody(t, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{}, 1e9, 1)
	plane := actor.Plane{Normal: mgl64.Vec3{0, 1, 0}, D: 0}

	if got := Resolve(0, a, b, plane); got != CollideBounce {
		t.Fatalf("Resolve() = %v, want bounce", got)
	}
	if v := b.VelocityAt(0); v.Len() > 1e-8 {
		t.Errorf("heavy body velocity = %v, want ~0", v)
	}
}

func TestResolve_TimeOfImpact(t *testing.T) {
	// Crosses the floor halfway between tick 0 and tick 1
	body := createBody(t, mgl64.Vec3{2, 0.5, 0}, mgl64.Vec3{0.2, -1, 0}, 1, 1)

	Resolve(0, body, Wall(1, 0), floor)

	want := mgl64.Vec3{2.1, 0, 0}
	if !vec3AlmostEqual(body.Position, want, 1e-9) {
		t.Errorf("contact position = %v, want %v", body.Position, want)
	}
	if body.StartTick != 0 {
		t.Errorf("StartTick = %d, want 0", body.StartTick)
	}
	if body.Velocity.Y() <= 0 {
		t.Errorf("velocity after elastic impact = %v, want upward", body.Velocity)
	}
}

func TestResolve_StickWhenRestitutionIsZero(t *testing.T) {
	body := createBody(t, mgl64.Vec3{0, 0.005, 0}, mgl64.Vec3{0.3, -0.4, 0}, 1, 1)
	body.Forces["gravity"] = mgl64.Vec3{0, -0.1, 0}
	body.StartTick = 4

	if got := Resolve(4, body, Wall(0, 0.5), floor); got != CollideStick {
		t.Fatalf("Resolve() = %v, want stick", got)
	}
	if v := body.Velocity.Y(); math.Abs(v) > 1e-3 {
		t.Errorf("normal velocity after stick = %v, want ~0", v)
	}
	if !almostEqual(body.Velocity.X(), 0.3, 1e-9) {
		t.Errorf("tangential velocity = %v, want it kept", body.Velocity.X())
	}
	if body.StartTick != 4 {
		t.Errorf("StartTick = %d, want 4", body.StartTick)
	}
}

func TestResolve_StickWhenSlowUnderLoad(t *testing.T) {
	// 0.05 approach speed against 0.1 of gravity along the normal
	body := createBody(t, mgl64.Vec3{0, 0.001, 0}, mgl64.Vec3{0, -0.05, 0}, 1, 1)
	body.Forces["gravity"] = mgl64.Vec3{0, -0.1, 0}

	if got := Resolve(0, body, Wall(1, 0), floor); got != CollideStick {
		t.Errorf("Resolve() = %v, want stick", got)
	}
}

func TestResolve_SeparationOverride(t *testing.T) {
	// Touching and already leaving: the normal velocity is pushed further out
	body := createBody(t, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0.5, 0}, 1, 1)

	if got := Resolve(0, body, Wall(1, 0), floor); got != CollideBounce {
		t.Fatalf("Resolve() = %v, want bounce", got)
	}
	if v := body.Velocity.Y(); v < 0.9 {
		t.Errorf("velocity after separation override = %v, want ~1", v)
	}
}

func TestResolve_NoWriteBelowTolerance(t *testing.T) {
	body := createBody(t, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{}, 1, 1)
	body.StartTick = 3

	if got := Resolve(8, body, Wall(1, 0), floor); got != CollideBounce {
		t.Fatalf("Resolve() = %v, want bounce", got)
	}
	if body.StartTick != 3 {
		t.Errorf("StartTick = %d, a zero delta must not be written", body.StartTick)
	}
}

func TestResolve_FallbackProjection(t *testing.T) {
	// Resting 0.05 below the floor without moving: projected back onto it
	body := createBody(t, mgl64.Vec3{1, -0.05, 1}, mgl64.Vec3{}, 1, 1)

	Resolve(0, body, Wall(1, 0), floor)

	if !vec3AlmostEqual(body.Position, mgl64.Vec3{1, 0, 1}, 1e-12) {
		t.Errorf("projected position = %v, want [1 0 1]", body.Position)
	}
}

func TestCombineRestitution(t *testing.T) {
	tests := []struct {
		name     string
		a, b     float64
		expected float64
	}{
		{"both zero", 0, 0, 0},
		{"lesser wins", 0.2, 0.9, 0.2},
		{"symmetric", 0.9, 0.2, 0.2},
		{"both perfect", 1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CombineRestitution(tt.a, tt.b); got != tt.expected {
				t.Errorf("CombineRestitution(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestWall(t *testing.T) {
	w := Wall(0.4, 0.7)
	if w.Mass != WallMass || w.Restitution != 0.4 || w.Friction != 0.7 {
		t.Errorf("Wall() = %+v", w)
	}
	if v := w.VelocityAt(100); v != (mgl64.Vec3{}) {
		t.Errorf("wall velocity = %v, want zero", v)
	}
}
