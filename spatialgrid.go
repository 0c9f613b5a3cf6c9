package voxmotion

import (
	"cmp"
	"math"
	"slices"

	"github.com/akmonengine/voxmotion/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ============================================================================
// Types
// ============================================================================

// CellKey - coordinates of a cell in world space
type CellKey struct {
	X, Y, Z int
}

// Cell - indices of the boxes overlapping a cell
type Cell struct {
	indices []int
}

// Pair - two boxes that may touch, A < B
type Pair struct {
	A, B int
}

// SpatialGrid - uniform hashed grid for the entity broad phase
type SpatialGrid struct {
	cellSize float64
	cells    []Cell
	cellMask int
}

// ============================================================================
// Constructor
// ============================================================================

// NewSpatialGrid - numCells is rounded up to a power of two
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].indices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert - registers the box under index in every cell it overlaps
func (sg *SpatialGrid) Insert(index int, box actor.AABB) {
	minCell := sg.worldToCell(box.Min)
	maxCell := sg.worldToCell(box.Max)

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cellIdx := sg.hashCell(CellKey{x, y, z})
				sg.cells[cellIdx].indices = append(sg.cells[cellIdx].indices, index)
			}
		}
	}
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].indices = sg.cells[i].indices[:0]
	}
}

func (sg *SpatialGrid) SortCells() {
	for i := range sg.cells {
		if len(sg.cells[i].indices) > 1 {
			slices.Sort(sg.cells[i].indices)
		}
	}
}

// FindPairs returns every pair of overlapping boxes once, ordered by (A, B).
// boxes must be the slice the grid was filled from.
func (sg *SpatialGrid) FindPairs(boxes []actor.AABB) []Pair {
	pairs := make([]Pair, 0, len(boxes)/2)
	seen := make([]bool, len(boxes))

	for a := range boxes {
		clear(seen)

		minCell := sg.worldToCell(boxes[a].Min)
		maxCell := sg.worldToCell(boxes[a].Max)

		for x := minCell.X; x <= maxCell.X; x++ {
			for y := minCell.Y; y <= maxCell.Y; y++ {
				for z := minCell.Z; z <= maxCell.Z; z++ {
					cellIdx := sg.hashCell(CellKey{x, y, z})

					for _, b := range sg.cells[cellIdx].indices {
						// (A,B) and (B,A) are the same pair, a box spanning cells is met several times
						if b <= a || seen[b] {
							continue
						}
						seen[b] = true

						if boxes[a].Overlaps(boxes[b]) {
							pairs = append(pairs, Pair{A: a, B: b})
						}
					}
				}
			}
		}
	}

	// hash collisions visit cells out of order
	slices.SortFunc(pairs, func(p, q Pair) int {
		if c := cmp.Compare(p.A, q.A); c != 0 {
			return c
		}
		return cmp.Compare(p.B, q.B)
	})

	return pairs
}

func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}
