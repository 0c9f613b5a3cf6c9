// Package terrain generates contact planes between moving bodies and solid voxels.
package terrain

// Voxels is the read-only voxel query consumed by the generator. ForEach calls fn
// once per sampled voxel of the box [lo, hi), stepping by step, with the
// neighbourhood of that voxel. Voxel data must not change while a tick runs.
type Voxels interface {
	ForEach(lo, hi [3]int, step int, fn func(x, y, z int, w *Window))
}

// Window is the 3×3×3 block of material ids centered on a sampled voxel
type Window [27]uint16

// WindowIndex returns the slot of the voxel at offset (dx, dy, dz) from the center
func WindowIndex(dx, dy, dz int) int {
	return (dx + 1) + 3*(dz+1) + 9*(dy+1)
}

// Center returns the material id of the sampled voxel
func (w *Window) Center() uint16 {
	return w[WindowIndex(0, 0, 0)]
}

// At returns the material id at offset (dx, dy, dz), each in [-1, 1]
func (w *Window) At(dx, dy, dz int) uint16 {
	return w[WindowIndex(dx, dy, dz)]
}

// Neighbor returns the face neighbour along axis in direction dir (-1 or 1)
func (w *Window) Neighbor(axis, dir int) uint16 {
	var d [3]int
	d[axis] = dir
	return w.At(d[0], d[1], d[2])
}
