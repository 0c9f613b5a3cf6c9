package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// NewAABB builds the box of the given extents centered on position
func NewAABB(position mgl64.Vec3, extents mgl64.Vec3) AABB {
	half := extents.Mul(0.5)
	return AABB{
		Min: position.Sub(half),
		Max: position.Add(half),
	}
}

// SweptAABB returns the box covering a body of the given extents moving from p0 to p1
func SweptAABB(p0, p1 mgl64.Vec3, extents mgl64.Vec3) AABB {
	var box AABB
	for i := range 3 {
		box.Min[i] = math.Min(p0[i], p1[i]) - 0.5*extents[i]
		box.Max[i] = math.Max(p0[i], p1[i]) + 0.5*extents[i]
	}
	return box
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on all three axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Expand grows the box by margin on every side
func (a AABB) Expand(margin float64) AABB {
	m := mgl64.Vec3{margin, margin, margin}
	return AABB{Min: a.Min.Sub(m), Max: a.Max.Add(m)}
}

// Separation returns the largest per-axis gap between the two boxes.
// A negative value means the boxes interpenetrate on every axis.
func (a AABB) Separation(other AABB) float64 {
	gap := math.Inf(-1)
	for i := range 3 {
		gap = math.Max(gap, math.Max(other.Min[i]-a.Max[i], a.Min[i]-other.Max[i]))
	}
	return gap
}

// VoxelBounds returns the integer voxel range [lo, hi) enclosing the box
func (a AABB) VoxelBounds() (lo, hi [3]int) {
	for i := range 3 {
		lo[i] = int(math.Floor(a.Min[i]))
		hi[i] = int(math.Ceil(a.Max[i]))
	}
	return lo, hi
}
