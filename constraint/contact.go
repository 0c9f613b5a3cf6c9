package constraint

import (
	"math"

	"github.com/akmonengine/voxmotion/actor"
	"github.com/akmonengine/voxmotion/motion"
	"github.com/go-gl/mathgl/mgl64"
)

// Resolve tests the bodies a and b against the separating plane between tick and
// tick+1 and exchanges a momentum conserving impulse along the plane normal when
// they touch. The plane normal points from b toward a.
//
// Both states are rewritten at tick when the resolution moves them by more than
// Tolerance. Callers serialize access to a and b for the duration of the call.
func Resolve(tick int64, a, b *motion.State, plane actor.Plane) Result {
	n := plane.Normal

	p0 := a.PositionAt(tick)
	p1 := a.PositionAt(tick + 1)
	q0 := b.PositionAt(tick)
	q1 := b.PositionAt(tick + 1)

	// ========== 1. Relative separation ==========
	d0 := p0.Sub(q0).Dot(n)
	d1 := p1.Sub(q1).Dot(n)

	if d0+plane.D > ContactThreshold && d1+plane.D > ContactThreshold {
		return CollideNone
	}

	// ========== 2. Time of impact ==========
	t := -1.0
	if math.Abs(d1-d0) > Tolerance {
		t = -(d0 + plane.D) / (d1 - d0)
	}

	var pt, qt mgl64.Vec3
	if 0 <= t && t <= 1 {
		pt = lerp(p0, p1, t)
		qt = lerp(q0, q1, t)
	} else {
		// Not approaching, or already through: push a back onto the plane
		pt = p0.Sub(n.Mul(d0 + plane.D))
		qt = q0
	}

	// ========== 3. Center of momentum frame ==========
	cr := CombineRestitution(a.Restitution, b.Restitution)
	vp := a.VelocityAt(tick)
	vq := b.VelocityAt(tick)
	mp := a.Mass
	mq := b.Mass

	fp := a.NetForce().Dot(n) / mp
	fq := b.NetForce().Dot(n) / mq

	vc := vp.Mul(mp).Add(vq.Mul(mq)).Mul(1.0 / (mp + mq))
	up := vp.Sub(vc)
	uq := vq.Sub(vc)
	np := up.Dot(n)
	nq := uq.Dot(n)

	// ========== 4. Classification ==========
	stick := false
	if math.Abs(np-nq)*cr < StickThreshold*(math.Abs(fp)+math.Abs(fq)) {
		cr = 0
		stick = true
	}
	if !stick && np-nq > 0 {
		cr = SeparationRestitution
	}

	// ========== 5. Impulse ==========
	up = up.Sub(n.Mul((1 + cr) * np)).Add(vc)
	uq = uq.Sub(n.Mul((1 + cr) * nq)).Add(vc)

	if maxDelta(pt, p0, up, vp) > Tolerance {
		a.StartTick = tick
		a.Position = pt
		a.Velocity = up
	}
	if maxDelta(qt, q0, uq, vq) > Tolerance {
		b.StartTick = tick
		b.Position = qt
		b.Velocity = uq
	}

	if stick {
		return CollideStick
	}
	return CollideBounce
}

func lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Mul(1 - t).Add(b.Mul(t))
}

// maxDelta returns the largest component change in position or velocity
func maxDelta(p, p0, v, v0 mgl64.Vec3) float64 {
	delta := 0.0
	for i := range 3 {
		delta = math.Max(delta, math.Max(math.Abs(p[i]-p0[i]), math.Abs(v[i]-v0[i])))
	}
	return delta
}
