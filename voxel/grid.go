// Package voxel is an in-memory chunked voxel store. It answers the neighbourhood
// queries of the terrain contact generator.
package voxel

import (
	"sync"

	"github.com/akmonengine/voxmotion/terrain"
)

const (
	// ChunkSize is the edge of a chunk, a power of two
	ChunkSize = 16
	shift     = 4
	mask      = ChunkSize - 1

	chunkVolume = ChunkSize * ChunkSize * ChunkSize
)

type ChunkCoord struct{ X, Y, Z int32 }

// Chunk holds the material ids of a 16³ region. Id 0 is the empty material.
type Chunk struct {
	C    ChunkCoord
	Type [chunkVolume]uint16
}

// idx = x | z<<4 | y<<8
func index(x, y, z int) int {
	return (x & mask) | (z&mask)<<shift | (y&mask)<<(2*shift)
}

func coordOf(x, y, z int) ChunkCoord {
	return ChunkCoord{int32(x >> shift), int32(y >> shift), int32(z >> shift)}
}

// Grid is a sparse set of chunks. Missing chunks read as id 0.
type Grid struct {
	mu     sync.RWMutex
	chunks map[ChunkCoord]*Chunk
}

func NewGrid() *Grid {
	return &Grid{chunks: make(map[ChunkCoord]*Chunk)}
}

// Get returns the material id at (x, y, z)
func (g *Grid) Get(x, y, z int) uint16 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.get(x, y, z)
}

func (g *Grid) get(x, y, z int) uint16 {
	c, ok := g.chunks[coordOf(x, y, z)]
	if !ok {
		return 0
	}
	return c.Type[index(x, y, z)]
}

// Set stores the material id at (x, y, z)
func (g *Grid) Set(x, y, z int, id uint16) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.set(x, y, z, id)
}

func (g *Grid) set(x, y, z int, id uint16) {
	cc := coordOf(x, y, z)
	c, ok := g.chunks[cc]
	if !ok {
		if id == 0 {
			return
		}
		c = &Chunk{C: cc}
		g.chunks[cc] = c
	}
	c.Type[index(x, y, z)] = id
}

// Fill sets every voxel of the box [lo, hi) to id
func (g *Grid) Fill(lo, hi [3]int, id uint16) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for y := lo[1]; y < hi[1]; y++ {
		for z := lo[2]; z < hi[2]; z++ {
			for x := lo[0]; x < hi[0]; x++ {
				g.set(x, y, z, id)
			}
		}
	}
}

// Len returns the number of allocated chunks
func (g *Grid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.chunks)
}

// ForEach implements terrain.Voxels. The read lock is held for the whole scan so
// the callback sees a consistent grid; fn must not write to g.
func (g *Grid) ForEach(lo, hi [3]int, step int, fn func(x, y, z int, w *terrain.Window)) {
	if step <= 0 {
		step = 1
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	var w terrain.Window
	for y := lo[1]; y < hi[1]; y += step {
		for z := lo[2]; z < hi[2]; z += step {
			for x := lo[0]; x < hi[0]; x += step {
				for dy := -1; dy <= 1; dy++ {
					for dz := -1; dz <= 1; dz++ {
						for dx := -1; dx <= 1; dx++ {
							w[terrain.WindowIndex(dx, dy, dz)] = g.get(x+dx*step, y+dy*step, z+dz*step)
						}
					}
				}
				fn(x, y, z, &w)
			}
		}
	}
}

var _ terrain.Voxels = (*Grid)(nil)
