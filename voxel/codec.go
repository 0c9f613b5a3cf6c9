package voxel

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotVersion tags the snapshot layout
const SnapshotVersion = 1

var ErrSnapshotVersion = errors.New("unsupported snapshot version")

type snapshot struct {
	Version int             `msgpack:"v"`
	Chunks  []chunkSnapshot `msgpack:"chunks"`
}

// chunkSnapshot stores a chunk as runs of identical ids
type chunkSnapshot struct {
	X, Y, Z int32
	Runs    []uint32 `msgpack:"runs"`
}

// MarshalBinary encodes the grid, chunks ordered by coordinate
func (g *Grid) MarshalBinary() ([]byte, error) {
	g.mu.RLock()
	coords := make([]ChunkCoord, 0, len(g.chunks))
	for cc := range g.chunks {
		coords = append(coords, cc)
	}
	slices.SortFunc(coords, compareCoord)

	snap := snapshot{Version: SnapshotVersion, Chunks: make([]chunkSnapshot, 0, len(coords))}
	for _, cc := range coords {
		snap.Chunks = append(snap.Chunks, chunkSnapshot{
			X: cc.X, Y: cc.Y, Z: cc.Z,
			Runs: encodeRuns(&g.chunks[cc].Type),
		})
	}
	g.mu.RUnlock()

	data, err := msgpack.Marshal(&snap)
	if err != nil {
		return nil, fmt.Errorf("voxel: marshal: %w", err)
	}
	return data, nil
}

// UnmarshalBinary replaces the content of g with a snapshot
func (g *Grid) UnmarshalBinary(data []byte) error {
	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("voxel: unmarshal: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("voxel: %w: %d", ErrSnapshotVersion, snap.Version)
	}

	chunks := make(map[ChunkCoord]*Chunk, len(snap.Chunks))
	for _, cs := range snap.Chunks {
		c := &Chunk{C: ChunkCoord{cs.X, cs.Y, cs.Z}}
		if err := decodeRuns(cs.Runs, &c.Type); err != nil {
			return fmt.Errorf("voxel: chunk %v: %w", c.C, err)
		}
		chunks[c.C] = c
	}

	g.mu.Lock()
	g.chunks = chunks
	g.mu.Unlock()
	return nil
}

// encodeRuns packs each run as count<<16 | id
func encodeRuns(types *[chunkVolume]uint16) []uint32 {
	var runs []uint32
	start := 0
	for i := 1; i <= len(types); i++ {
		if i < len(types) && types[i] == types[start] {
			continue
		}
		runs = append(runs, uint32(i-start)<<16|uint32(types[start]))
		start = i
	}
	return runs
}

func decodeRuns(runs []uint32, types *[chunkVolume]uint16) error {
	i := 0
	for _, r := range runs {
		n := int(r >> 16)
		if i+n > len(types) {
			return errors.New("run overflows chunk")
		}
		for j := range n {
			types[i+j] = uint16(r)
		}
		i += n
	}
	if i != len(types) {
		return fmt.Errorf("runs cover %d of %d voxels", i, len(types))
	}
	return nil
}

func compareCoord(a, b ChunkCoord) int {
	switch {
	case a.Y != b.Y:
		return int(a.Y) - int(b.Y)
	case a.Z != b.Z:
		return int(a.Z) - int(b.Z)
	}
	return int(a.X) - int(b.X)
}
