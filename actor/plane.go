package actor

import "github.com/go-gl/mathgl/mgl64"

// Plane is a contact constraint: points p with Normal·p + D = 0 lie on the surface,
// Normal·p + D > 0 is the free half-space. Mu is the friction contributed by the
// touching material.
type Plane struct {
	Normal mgl64.Vec3
	D      float64
	Mu     float64
}

// AxisPlane builds the plane whose normal is sign along axis, passing through offset on that axis
func AxisPlane(axis int, sign float64, offset float64, mu float64) Plane {
	var n mgl64.Vec3
	n[axis] = sign
	return Plane{Normal: n, D: -sign * offset, Mu: mu}
}

// Distance returns the signed distance of p to the plane
func (pl Plane) Distance(p mgl64.Vec3) float64 {
	return pl.Normal.Dot(p) + pl.D
}

// Flip returns the same surface seen from the other side
func (pl Plane) Flip() Plane {
	return Plane{Normal: pl.Normal.Mul(-1), D: -pl.D, Mu: pl.Mu}
}

// Array packs the plane as [nx, ny, nz, d, mu], the persisted contact layout
func (pl Plane) Array() [5]float64 {
	return [5]float64{pl.Normal[0], pl.Normal[1], pl.Normal[2], pl.D, pl.Mu}
}

// PlaneFromArray is the inverse of Plane.Array
func PlaneFromArray(a [5]float64) Plane {
	return Plane{
		Normal: mgl64.Vec3{a[0], a[1], a[2]},
		D:      a[3],
		Mu:     a[4],
	}
}
